package script

import (
	"strings"
	"sync"
)

// Deviation is returned when the client sends a message the script does not allow at that point.
type Deviation struct {
	Expected []*Line
	Received *Message
}

func (d *Deviation) Error() string {
	var b strings.Builder
	if len(d.Expected) == 0 {
		b.WriteString("Expected no further messages.")
	} else {
		b.WriteString("Expected one of:\n")
		for i, l := range d.Expected {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(l.String())
		}
	}
	b.WriteString("\n\nReceived:\n")
	b.WriteString(d.Received.String())
	return b.String()
}

// Play is one run of a script against one connection.
type Play struct {
	script  *Script
	body    *blockList
	skipped bool
	lock    sync.Mutex
}

// NewPlay starts a fresh run of the script.
func (s *Script) NewPlay() *Play {
	return &Play{script: s, body: s.body.cloneList()}
}

// Init sends whatever the server says before the client's first message.
func (p *Play) Init(peer Peer) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.body.init(peer)
}

// Step offers a client message to the script. The peer is asked to consume it when it matches.
func (p *Play) Step(msg *Message, peer Peer) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	ok, err := p.body.tryConsume(msg, peer)
	if err != nil || ok {
		return err
	}
	if p.script.Header.Auto[msg.Name] {
		peer.Consume(nil)
		return peer.AutoRespond(msg)
	}
	return &Deviation{Expected: p.body.acceptedLines(), Received: msg}
}

// Done reports whether the script has been played to its end.
func (p *Play) Done() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.skipped || p.body.done()
}

// TrySkipToEnd ends the run early if everything left in the script is optional.
func (p *Play) TrySkipToEnd() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.skipped && p.body.canBeSkipped() {
		p.skipped = true
	}
	return p.skipped
}

// Expected lists the client lines the script would accept next.
func (p *Play) Expected() []*Line {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.body.acceptedLines()
}
