package frontend

import (
	"fmt"

	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

type BookmarkManagerConfig struct {
	InitialBookmarks map[string][]string
	// Supplier, when set, is asked for extra bookmarks each time the driver needs them.
	Supplier func(database string) ([]string, error)
	// Consumer, when set, is told about every new set of bookmarks.
	Consumer func(database string, bookmarks []string) error
}

type BookmarkManager struct {
	b      *Backend
	id     string
	config BookmarkManagerConfig
}

func NewBookmarkManager(b *Backend, config BookmarkManagerConfig) (*BookmarkManager, error) {
	res, err := b.call(servicedef.NewBookmarkManager{
		InitialBookmarks:            config.InitialBookmarks,
		BookmarksSupplierRegistered: config.Supplier != nil,
		BookmarksConsumerRegistered: config.Consumer != nil,
	}, "BookmarkManager")
	if err != nil {
		return nil, err
	}
	m := &BookmarkManager{b: b, id: res.(servicedef.BookmarkManager).ID, config: config}
	b.registry(kindBookmarkManager).Register(m.id, m)
	return m, nil
}

func (m *BookmarkManager) ID() string {
	return m.id
}

func (m *BookmarkManager) Close() error {
	if _, err := m.b.call(servicedef.BookmarkManagerClose{ID: m.id}, "BookmarkManager"); err != nil {
		return err
	}
	m.b.registry(kindBookmarkManager).Unregister(m.id)
	return nil
}

func (b *Backend) handleBookmarksSupplier(request interface{}) (interface{}, error) {
	req := request.(servicedef.BookmarksSupplierRequest)
	owner, err := b.lookup(kindBookmarkManager, req.BookmarkManagerID)
	if err != nil {
		return nil, err
	}
	m := owner.(*BookmarkManager)
	if m.config.Supplier == nil {
		return nil, fmt.Errorf("bookmark manager %s has no supplier", m.id)
	}
	bookmarks, err := m.config.Supplier(req.Database)
	if err != nil {
		return nil, err
	}
	if bookmarks == nil {
		bookmarks = []string{}
	}
	return servicedef.BookmarksSupplierCompleted{RequestID: req.ID, Bookmarks: bookmarks}, nil
}

func (b *Backend) handleBookmarksConsumer(request interface{}) (interface{}, error) {
	req := request.(servicedef.BookmarksConsumerRequest)
	owner, err := b.lookup(kindBookmarkManager, req.BookmarkManagerID)
	if err != nil {
		return nil, err
	}
	m := owner.(*BookmarkManager)
	if m.config.Consumer == nil {
		return nil, fmt.Errorf("bookmark manager %s has no consumer", m.id)
	}
	if err := m.config.Consumer(req.Database, req.Bookmarks); err != nil {
		return nil, err
	}
	return servicedef.BookmarksConsumerCompleted{RequestID: req.ID}, nil
}
