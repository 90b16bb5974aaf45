package script

// Peer is the connection a script is played against.
type Peer interface {
	// Consume takes the message that was offered to the script. line is the client line it
	// matched, or nil when the message was answered automatically.
	Consume(line *Line) *Message
	// Send sends a server line, or runs it when it is a command.
	Send(line *Line) error
	// AutoRespond sends the automatic reply to msg.
	AutoRespond(msg *Message) error
}

// block is a node of a compiled script. Blocks carry their own playback state, so every
// connection plays a clone of the script's blocks.
type block interface {
	acceptedLines() []*Line
	acceptedLinesAfterReset() []*Line
	// checkNoInit fails when entering the block would make the server send something before the
	// client has said anything.
	checkNoInit() error
	done() bool
	canBeSkipped() bool
	canConsume(msg *Message) bool
	canConsumeAfterReset(msg *Message) bool
	hasDeterministicEnd() bool
	init(p Peer) error
	reset()
	tryConsume(msg *Message, p Peer) (bool, error)
	lines() []*Line
	clone() block
	render(r *renderer)
}

type clientBlock struct {
	body  []*Line
	index int
}

func (b *clientBlock) acceptedLines() []*Line {
	if b.index >= len(b.body) {
		return nil
	}
	return b.body[b.index : b.index+1]
}

func (b *clientBlock) acceptedLinesAfterReset() []*Line { return b.body[:1] }
func (b *clientBlock) checkNoInit() error               { return nil }
func (b *clientBlock) done() bool                       { return b.index >= len(b.body) }
func (b *clientBlock) canBeSkipped() bool               { return false }
func (b *clientBlock) hasDeterministicEnd() bool        { return true }
func (b *clientBlock) init(Peer) error                  { return nil }
func (b *clientBlock) reset()                           { b.index = 0 }
func (b *clientBlock) lines() []*Line                   { return b.body }

func (b *clientBlock) canConsume(msg *Message) bool {
	return !b.done() && b.body[b.index].Matches(msg)
}

func (b *clientBlock) canConsumeAfterReset(msg *Message) bool {
	return len(b.body) > 0 && b.body[0].Matches(msg)
}

func (b *clientBlock) tryConsume(msg *Message, p Peer) (bool, error) {
	if !b.canConsume(msg) {
		return false, nil
	}
	p.Consume(b.body[b.index])
	b.index++
	return true, nil
}

func (b *clientBlock) clone() block {
	return &clientBlock{body: b.body}
}

func (b *clientBlock) render(r *renderer) {
	for _, l := range b.body {
		r.line(l.Canonical())
	}
}

// autoBlock holds exactly one A: line. The client message is answered like an AUTO message.
type autoBlock struct {
	clientBlock
}

func (b *autoBlock) tryConsume(msg *Message, p Peer) (bool, error) {
	if !b.canConsume(msg) {
		return false, nil
	}
	consumed := p.Consume(b.body[b.index])
	b.index++
	return true, p.AutoRespond(consumed)
}

func (b *autoBlock) clone() block {
	return &autoBlock{clientBlock{body: b.body}}
}

type serverBlock struct {
	body  []*Line
	index int
}

func (b *serverBlock) acceptedLines() []*Line                  { return nil }
func (b *serverBlock) acceptedLinesAfterReset() []*Line        { return nil }
func (b *serverBlock) done() bool                              { return b.index >= len(b.body) }
func (b *serverBlock) canBeSkipped() bool                      { return false }
func (b *serverBlock) canConsume(*Message) bool                { return false }
func (b *serverBlock) canConsumeAfterReset(*Message) bool      { return false }
func (b *serverBlock) hasDeterministicEnd() bool               { return true }
func (b *serverBlock) reset()                                  { b.index = 0 }
func (b *serverBlock) tryConsume(*Message, Peer) (bool, error) { return false, nil }
func (b *serverBlock) lines() []*Line                          { return b.body }

func (b *serverBlock) checkNoInit() error {
	if len(b.body) > 0 {
		return lineErrorf(b.body[0].Number, "ambiguity of script does not allow for server response here")
	}
	return nil
}

func (b *serverBlock) init(p Peer) error {
	for !b.done() {
		l := b.body[b.index]
		b.index++
		if err := p.Send(l); err != nil {
			return err
		}
	}
	return nil
}

func (b *serverBlock) clone() block {
	return &serverBlock{body: b.body}
}

func (b *serverBlock) render(r *renderer) {
	for _, l := range b.body {
		r.line(l.Canonical())
	}
}

// blockList plays its blocks in sequence.
type blockList struct {
	blocks []block
	index  int
}

func newBlockList(blocks []block) (*blockList, error) {
	for i := 1; i < len(blocks); i++ {
		if !blocks[i-1].hasDeterministicEnd() {
			if err := blocks[i].checkNoInit(); err != nil {
				return nil, err
			}
		}
	}
	return &blockList{blocks: blocks}, nil
}

func (l *blockList) acceptedLines() []*Line {
	var ret []*Line
	for i := l.index; i < len(l.blocks); i++ {
		ret = append(ret, l.blocks[i].acceptedLines()...)
		if !l.blocks[i].canBeSkipped() {
			break
		}
	}
	return ret
}

func (l *blockList) acceptedLinesAfterReset() []*Line {
	var ret []*Line
	for _, b := range l.blocks {
		ret = append(ret, b.acceptedLinesAfterReset()...)
		if !b.canBeSkipped() {
			break
		}
	}
	return ret
}

func (l *blockList) checkNoInit() error {
	if len(l.blocks) == 0 {
		return nil
	}
	return l.blocks[0].checkNoInit()
}

func (l *blockList) canBeSkipped() bool {
	for i := l.index; i < len(l.blocks); i++ {
		if !l.blocks[i].canBeSkipped() {
			return false
		}
	}
	return true
}

func (l *blockList) canConsume(msg *Message) bool {
	for i := l.index; i < len(l.blocks); i++ {
		if l.blocks[i].canConsume(msg) {
			return true
		}
		if !l.blocks[i].canBeSkipped() {
			break
		}
	}
	return false
}

func (l *blockList) canConsumeAfterReset(msg *Message) bool {
	for _, b := range l.blocks {
		if b.canConsumeAfterReset(msg) {
			return true
		}
		if !b.canBeSkipped() {
			break
		}
	}
	return false
}

func (l *blockList) done() bool {
	return l.hasDeterministicEnd() && l.index >= len(l.blocks)
}

func (l *blockList) hasDeterministicEnd() bool {
	return len(l.blocks) == 0 || l.blocks[len(l.blocks)-1].hasDeterministicEnd()
}

func (l *blockList) init(p Peer) error {
	for l.index < len(l.blocks) {
		b := l.blocks[l.index]
		if err := b.init(p); err != nil {
			return err
		}
		if !b.hasDeterministicEnd() || !b.done() {
			break
		}
		l.index++
	}
	return nil
}

func (l *blockList) reset() {
	for _, b := range l.blocks {
		b.reset()
	}
	l.index = 0
}

func (l *blockList) tryConsume(msg *Message, p Peer) (bool, error) {
	for i := l.index; i < len(l.blocks); i++ {
		b := l.blocks[i]
		ok, err := b.tryConsume(msg, p)
		if err != nil {
			return ok, err
		}
		if !ok {
			if !b.canBeSkipped() {
				break
			}
			continue
		}
		l.index = i
		for b.hasDeterministicEnd() && b.done() {
			l.index++
			if l.index >= len(l.blocks) {
				break
			}
			b = l.blocks[l.index]
			if err := b.init(p); err != nil {
				return true, err
			}
		}
		return true, nil
	}
	return false, nil
}

func (l *blockList) lines() []*Line {
	var ret []*Line
	for _, b := range l.blocks {
		ret = append(ret, b.lines()...)
	}
	return ret
}

func (l *blockList) clone() block {
	return l.cloneList()
}

func (l *blockList) cloneList() *blockList {
	c := &blockList{blocks: make([]block, len(l.blocks))}
	for i, b := range l.blocks {
		c.blocks[i] = b.clone()
	}
	return c
}

func (l *blockList) render(r *renderer) {
	r.line("{{")
	r.indented(l.renderBody)
	r.line("}}")
}

func (l *blockList) renderBody(r *renderer) {
	for _, b := range l.blocks {
		b.render(r)
	}
}

// alternativeBlock plays exactly one of its branches, chosen by the first message it consumes.
type alternativeBlock struct {
	branches  []*blockList
	selection int
}

func newAlternativeBlock(branches []*blockList) (*alternativeBlock, error) {
	for _, b := range branches {
		if err := b.checkNoInit(); err != nil {
			return nil, err
		}
	}
	return &alternativeBlock{branches: branches, selection: -1}, nil
}

func (b *alternativeBlock) selected() *blockList {
	if b.selection < 0 {
		return nil
	}
	return b.branches[b.selection]
}

func (b *alternativeBlock) acceptedLines() []*Line {
	if s := b.selected(); s != nil {
		return s.acceptedLines()
	}
	var ret []*Line
	for _, br := range b.branches {
		ret = append(ret, br.acceptedLines()...)
	}
	return ret
}

func (b *alternativeBlock) acceptedLinesAfterReset() []*Line {
	var ret []*Line
	for _, br := range b.branches {
		ret = append(ret, br.acceptedLinesAfterReset()...)
	}
	return ret
}

func (b *alternativeBlock) checkNoInit() error {
	for _, br := range b.branches {
		if err := br.checkNoInit(); err != nil {
			return err
		}
	}
	return nil
}

func (b *alternativeBlock) canBeSkipped() bool {
	if s := b.selected(); s != nil {
		return s.canBeSkipped()
	}
	for _, br := range b.branches {
		if br.canBeSkipped() {
			return true
		}
	}
	return false
}

func (b *alternativeBlock) canConsume(msg *Message) bool {
	if s := b.selected(); s != nil {
		return s.canConsume(msg)
	}
	for _, br := range b.branches {
		if br.canConsume(msg) {
			return true
		}
	}
	return false
}

func (b *alternativeBlock) canConsumeAfterReset(msg *Message) bool {
	for _, br := range b.branches {
		if br.canConsumeAfterReset(msg) {
			return true
		}
	}
	return false
}

func (b *alternativeBlock) done() bool {
	s := b.selected()
	return s != nil && s.done()
}

func (b *alternativeBlock) hasDeterministicEnd() bool {
	for _, br := range b.branches {
		if !br.hasDeterministicEnd() {
			return false
		}
	}
	return true
}

func (b *alternativeBlock) init(Peer) error { return nil }

func (b *alternativeBlock) reset() {
	b.selection = -1
	for _, br := range b.branches {
		br.reset()
	}
}

func (b *alternativeBlock) tryConsume(msg *Message, p Peer) (bool, error) {
	if s := b.selected(); s != nil {
		return s.tryConsume(msg, p)
	}
	for i, br := range b.branches {
		ok, err := br.tryConsume(msg, p)
		if ok {
			b.selection = i
		}
		if ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}

func (b *alternativeBlock) lines() []*Line {
	var ret []*Line
	for _, br := range b.branches {
		ret = append(ret, br.lines()...)
	}
	return ret
}

func (b *alternativeBlock) clone() block {
	c := &alternativeBlock{branches: make([]*blockList, len(b.branches)), selection: -1}
	for i, br := range b.branches {
		c.branches[i] = br.cloneList()
	}
	return c
}

func (b *alternativeBlock) render(r *renderer) {
	renderBranches(r, b.branches, "----")
}

func renderBranches(r *renderer, branches []*blockList, separator string) {
	r.line("{{")
	for i, br := range branches {
		if i > 0 {
			r.line(separator)
		}
		r.indented(br.renderBody)
	}
	r.line("}}")
}

// parallelBlock plays all of its branches, interleaved in whatever order the client chooses.
type parallelBlock struct {
	branches []*blockList
}

func newParallelBlock(branches []*blockList) (*parallelBlock, error) {
	for _, b := range branches {
		if err := b.checkNoInit(); err != nil {
			return nil, err
		}
	}
	return &parallelBlock{branches: branches}, nil
}

func (b *parallelBlock) acceptedLines() []*Line {
	var ret []*Line
	for _, br := range b.branches {
		ret = append(ret, br.acceptedLines()...)
	}
	return ret
}

func (b *parallelBlock) acceptedLinesAfterReset() []*Line {
	var ret []*Line
	for _, br := range b.branches {
		ret = append(ret, br.acceptedLinesAfterReset()...)
	}
	return ret
}

func (b *parallelBlock) checkNoInit() error {
	for _, br := range b.branches {
		if err := br.checkNoInit(); err != nil {
			return err
		}
	}
	return nil
}

func (b *parallelBlock) done() bool {
	for _, br := range b.branches {
		if !br.done() {
			return false
		}
	}
	return true
}

func (b *parallelBlock) canBeSkipped() bool {
	for _, br := range b.branches {
		if !br.canBeSkipped() {
			return false
		}
	}
	return true
}

func (b *parallelBlock) canConsume(msg *Message) bool {
	for _, br := range b.branches {
		if br.canConsume(msg) {
			return true
		}
	}
	return false
}

func (b *parallelBlock) canConsumeAfterReset(msg *Message) bool {
	for _, br := range b.branches {
		if br.canConsumeAfterReset(msg) {
			return true
		}
	}
	return false
}

func (b *parallelBlock) hasDeterministicEnd() bool {
	for _, br := range b.branches {
		if !br.hasDeterministicEnd() {
			return false
		}
	}
	return true
}

func (b *parallelBlock) init(Peer) error { return nil }

func (b *parallelBlock) reset() {
	for _, br := range b.branches {
		br.reset()
	}
}

func (b *parallelBlock) tryConsume(msg *Message, p Peer) (bool, error) {
	for _, br := range b.branches {
		if ok, err := br.tryConsume(msg, p); ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}

func (b *parallelBlock) lines() []*Line {
	var ret []*Line
	for _, br := range b.branches {
		ret = append(ret, br.lines()...)
	}
	return ret
}

func (b *parallelBlock) clone() block {
	c := &parallelBlock{branches: make([]*blockList, len(b.branches))}
	for i, br := range b.branches {
		c.branches[i] = br.cloneList()
	}
	return c
}

func (b *parallelBlock) render(r *renderer) {
	renderBranches(r, b.branches, "++++")
}

// optionalBlock plays its body zero or one times.
type optionalBlock struct {
	body    *blockList
	started bool
	// macro is set for a block written as a single ?: line.
	macro bool
}

func newOptionalBlock(body *blockList, macro bool) (*optionalBlock, error) {
	if err := body.checkNoInit(); err != nil {
		return nil, err
	}
	return &optionalBlock{body: body, macro: macro}, nil
}

func (b *optionalBlock) acceptedLines() []*Line           { return b.body.acceptedLines() }
func (b *optionalBlock) acceptedLinesAfterReset() []*Line { return b.body.acceptedLinesAfterReset() }
func (b *optionalBlock) checkNoInit() error               { return b.body.checkNoInit() }
func (b *optionalBlock) init(Peer) error                  { return nil }
func (b *optionalBlock) lines() []*Line                   { return b.body.lines() }

func (b *optionalBlock) canBeSkipped() bool {
	if !b.started {
		return true
	}
	if b.body.hasDeterministicEnd() {
		return b.body.done()
	}
	return b.body.canBeSkipped()
}

func (b *optionalBlock) canConsume(msg *Message) bool {
	return b.body.canConsume(msg)
}

func (b *optionalBlock) canConsumeAfterReset(msg *Message) bool {
	return b.body.canConsumeAfterReset(msg)
}

func (b *optionalBlock) done() bool {
	return b.started && b.body.hasDeterministicEnd() && b.body.done()
}

func (b *optionalBlock) hasDeterministicEnd() bool {
	return b.started && b.body.hasDeterministicEnd()
}

func (b *optionalBlock) reset() {
	b.started = false
	b.body.reset()
}

func (b *optionalBlock) tryConsume(msg *Message, p Peer) (bool, error) {
	ok, err := b.body.tryConsume(msg, p)
	if ok {
		b.started = true
	}
	return ok, err
}

func (b *optionalBlock) clone() block {
	return &optionalBlock{body: b.body.cloneList(), macro: b.macro}
}

func (b *optionalBlock) render(r *renderer) {
	if b.macro {
		r.line("?:" + autoLineText(b.body))
		return
	}
	r.line("{?")
	r.indented(b.body.renderBody)
	r.line("?}")
}

// repeatBlock plays its body any number of times, at least min times.
type repeatBlock struct {
	body       *blockList
	min        int
	inBlock    bool
	iterations int
	macro      bool
}

func newRepeatBlock(body *blockList, min int, macro bool) (*repeatBlock, error) {
	if err := body.checkNoInit(); err != nil {
		return nil, err
	}
	return &repeatBlock{body: body, min: min, macro: macro}, nil
}

func (b *repeatBlock) acceptedLines() []*Line {
	ret := b.body.acceptedLines()
	if b.body.canBeSkipped() {
		seen := make(map[*Line]bool, len(ret))
		for _, l := range ret {
			seen[l] = true
		}
		for _, l := range b.body.acceptedLinesAfterReset() {
			if !seen[l] {
				ret = append(ret, l)
			}
		}
	}
	return ret
}

func (b *repeatBlock) acceptedLinesAfterReset() []*Line { return b.body.acceptedLinesAfterReset() }
func (b *repeatBlock) checkNoInit() error               { return b.body.checkNoInit() }
func (b *repeatBlock) done() bool                       { return false }
func (b *repeatBlock) hasDeterministicEnd() bool        { return false }
func (b *repeatBlock) init(Peer) error                  { return nil }
func (b *repeatBlock) lines() []*Line                   { return b.body.lines() }

func (b *repeatBlock) canBeSkipped() bool {
	if b.min == 0 {
		return !b.inBlock
	}
	if b.inBlock {
		return false
	}
	return b.body.canBeSkipped() || b.iterations >= 1
}

func (b *repeatBlock) canConsume(msg *Message) bool {
	if b.body.canConsume(msg) {
		return true
	}
	if b.body.hasDeterministicEnd() {
		return b.body.done() && b.body.canConsumeAfterReset(msg)
	}
	return b.body.canBeSkipped() && b.body.canConsumeAfterReset(msg)
}

func (b *repeatBlock) canConsumeAfterReset(msg *Message) bool {
	return b.body.canConsumeAfterReset(msg)
}

func (b *repeatBlock) reset() {
	b.inBlock = false
	b.iterations = 0
	b.body.reset()
}

func (b *repeatBlock) jumpToTop(msg *Message, p Peer) (bool, error) {
	b.body.reset()
	b.iterations++
	return b.tryConsume(msg, p)
}

func (b *repeatBlock) tryConsume(msg *Message, p Peer) (bool, error) {
	if b.body.hasDeterministicEnd() {
		if b.body.done() {
			return b.jumpToTop(msg, p)
		}
		ok, err := b.body.tryConsume(msg, p)
		if ok {
			b.inBlock = !b.body.done()
		}
		return ok, err
	}
	ok, err := b.body.tryConsume(msg, p)
	if ok || err != nil {
		if ok {
			b.inBlock = !b.body.canBeSkipped()
		}
		return ok, err
	}
	if b.body.canBeSkipped() && b.body.canConsumeAfterReset(msg) {
		return b.jumpToTop(msg, p)
	}
	return false, nil
}

func (b *repeatBlock) clone() block {
	return &repeatBlock{body: b.body.cloneList(), min: b.min, macro: b.macro}
}

func (b *repeatBlock) render(r *renderer) {
	open, close, macro := "{*", "*}", "*:"
	if b.min > 0 {
		open, close, macro = "{+", "+}", "+:"
	}
	if b.macro {
		r.line(macro + autoLineText(b.body))
		return
	}
	r.line(open)
	r.indented(b.body.renderBody)
	r.line(close)
}

// autoLineText is the canonical text of the single A: line wrapped by a macro block, without
// its role.
func autoLineText(body *blockList) string {
	ls := body.lines()
	if len(ls) != 1 {
		return ""
	}
	return ls[0].Canonical()[len(RoleAuto):]
}
