package lstore

import (
	"github.com/ValentinKolb/kvcache/lib/db"
	"github.com/ValentinKolb/kvcache/lib/store"
	"time"
)

type storeImpl struct {
	db db.KVDB
}

// NewLocalStore creates a new local store instance.
// This store implementation only lives inside the current process.
// The factory is typically a maple engine: func() db.KVDB { return maple.NewMapleDB(nil) }
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db: factory(),
	}
}

// unsupported builds the error returned for operations the engine does not support
func unsupported(feature db.Feature) error {
	return store.Errorf(store.RetCUnsupportedOperation, "%s operation is not supported", feature)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return unsupported(db.FeatureSet)
	}
	s.db.Set(key, value)
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, unsupported(db.FeatureGet)
	}
	val, ok, err := s.db.Get(key)
	if err != nil {
		return nil, false, store.FromDBError(err)
	}
	return val, ok, nil
}

func (s *storeImpl) Incr(key string) (int64, error) {
	if !s.db.SupportsFeature(db.FeatureIncr) {
		return 0, unsupported(db.FeatureIncr)
	}
	n, err := s.db.Incr(key)
	return n, store.FromDBError(err)
}

func (s *storeImpl) RPush(key string, value []byte) (int64, error) {
	if !s.db.SupportsFeature(db.FeatureRPush) {
		return 0, unsupported(db.FeatureRPush)
	}
	n, err := s.db.RPush(key, value)
	return n, store.FromDBError(err)
}

func (s *storeImpl) LRange(key string, start, stop int64) ([][]byte, error) {
	if !s.db.SupportsFeature(db.FeatureLRange) {
		return nil, unsupported(db.FeatureLRange)
	}
	values, err := s.db.LRange(key, start, stop)
	if err != nil {
		return nil, store.FromDBError(err)
	}
	return values, nil
}

func (s *storeImpl) FlushDB() error {
	if !s.db.SupportsFeature(db.FeatureFlush) {
		return unsupported(db.FeatureFlush)
	}
	s.db.Flush()
	return nil
}

func (s *storeImpl) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureSetNX) {
		return false, unsupported(db.FeatureSetNX)
	}
	return s.db.SetNX(key, value, ttl), nil
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return unsupported(db.FeatureDelete)
	}
	s.db.Delete(key)
	return nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

// Close closes the underlying engine
func (s *storeImpl) Close() error {
	return s.db.Close()
}
