package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kvcache/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Incr", func(t *testing.T) {
			testIncr(t, factory())
		})

		t.Run("RPush&LRange", func(t *testing.T) {
			testRPushLRange(t, factory())
		})

		t.Run("WrongType", func(t *testing.T) {
			testWrongType(t, factory())
		})

		t.Run("SetNX&Delete", func(t *testing.T) {
			testSetNXDelete(t, factory())
		})

		t.Run("Flush", func(t *testing.T) {
			testFlush(t, factory())
		})

		t.Run("ConcurrentIncr", func(t *testing.T) {
			testConcurrentIncr(t, factory())
		})

		t.Run("ConcurrentRPush", func(t *testing.T) {
			testConcurrentRPush(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	database.Set(testKey, testValue1)

	result, exists, err := database.Get(testKey)
	if err != nil || !exists {
		t.Fatalf("Expected key %s to exist after Set (err=%v)", testKey, err)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	database.Set(testKey, testValue2)

	result, _, _ = database.Get(testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists, _ = database.Get("nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}

	// returned values must be copies
	result[0] = 'X'
	original, _, _ := database.Get(testKey)
	if !bytes.Equal(original, testValue2) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}

	// the input must be copied as well
	input := []byte("mutable")
	database.Set("copy-key", input)
	input[0] = 'X'
	if stored, _, _ := database.Get("copy-key"); string(stored) != "mutable" {
		t.Errorf("Set should copy the value, got %s", stored)
	}

	// empty values are values
	database.Set("empty", []byte{})
	if val, ok, _ := database.Get("empty"); !ok || len(val) != 0 {
		t.Errorf("Expected empty value to be found, got %v (found=%v)", val, ok)
	}
}

func testIncr(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureIncr|db.FeatureSet|db.FeatureGet)

	for i := int64(1); i <= 3; i++ {
		n, err := database.Incr("counter")
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if n != i {
			t.Errorf("Expected counter %d, got %d", i, n)
		}
	}

	if val, _, _ := database.Get("counter"); string(val) != "3" {
		t.Errorf("Expected counter to be stored as base-10 text, got %q", val)
	}

	database.Set("preset", []byte("41"))
	if n, err := database.Incr("preset"); err != nil || n != 42 {
		t.Errorf("Expected 42, got %d (err=%v)", n, err)
	}

	database.Set("text", []byte("abc"))
	if _, err := database.Incr("text"); !errors.Is(err, db.ErrNotInteger) {
		t.Errorf("Expected ErrNotInteger, got %v", err)
	}
	if val, _, _ := database.Get("text"); string(val) != "abc" {
		t.Errorf("Failed Incr must not modify the value, got %q", val)
	}

	database.Set("max", []byte("9223372036854775807"))
	if _, err := database.Incr("max"); !errors.Is(err, db.ErrNotInteger) {
		t.Errorf("Expected overflow to fail with ErrNotInteger, got %v", err)
	}
}

func testRPushLRange(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureRPush|db.FeatureLRange)

	for i := 0; i < 5; i++ {
		n, err := database.RPush("list", []byte(fmt.Sprintf("item-%d", i)))
		if err != nil {
			t.Fatalf("RPush failed: %v", err)
		}
		if n != int64(i+1) {
			t.Errorf("Expected length %d, got %d", i+1, n)
		}
	}

	cases := []struct {
		start, stop int64
		want        []string
	}{
		{0, -1, []string{"item-0", "item-1", "item-2", "item-3", "item-4"}},
		{0, 0, []string{"item-0"}},
		{1, 2, []string{"item-1", "item-2"}},
		{-2, -1, []string{"item-3", "item-4"}},
		{3, 100, []string{"item-3", "item-4"}},
		{-100, 1, []string{"item-0", "item-1"}},
		{4, 2, []string{}},
		{10, 20, []string{}},
	}

	for _, c := range cases {
		values, err := database.LRange("list", c.start, c.stop)
		if err != nil {
			t.Fatalf("LRange(%d, %d) failed: %v", c.start, c.stop, err)
		}
		if len(values) != len(c.want) {
			t.Errorf("LRange(%d, %d): expected %d items, got %d", c.start, c.stop, len(c.want), len(values))
			continue
		}
		for i := range values {
			if string(values[i]) != c.want[i] {
				t.Errorf("LRange(%d, %d)[%d]: expected %s, got %s", c.start, c.stop, i, c.want[i], values[i])
			}
		}
	}

	values, err := database.LRange("missing", 0, -1)
	if err != nil || len(values) != 0 {
		t.Errorf("Expected empty result for missing list, got %v (err=%v)", values, err)
	}

	// returned items must be copies
	values, _ = database.LRange("list", 0, 0)
	values[0][0] = 'X'
	values, _ = database.LRange("list", 0, 0)
	if string(values[0]) != "item-0" {
		t.Errorf("LRange should return copies, got %s", values[0])
	}
}

func testWrongType(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureRPush|db.FeatureLRange|db.FeatureIncr)

	database.Set("plain", []byte("1"))
	if _, err := database.RPush("plain", []byte("x")); !errors.Is(err, db.ErrWrongType) {
		t.Errorf("Expected ErrWrongType for RPush on a plain value, got %v", err)
	}
	if _, err := database.LRange("plain", 0, -1); !errors.Is(err, db.ErrWrongType) {
		t.Errorf("Expected ErrWrongType for LRange on a plain value, got %v", err)
	}

	_, _ = database.RPush("list", []byte("x"))
	if _, _, err := database.Get("list"); !errors.Is(err, db.ErrWrongType) {
		t.Errorf("Expected ErrWrongType for Get on a list, got %v", err)
	}
	if _, err := database.Incr("list"); !errors.Is(err, db.ErrWrongType) {
		t.Errorf("Expected ErrWrongType for Incr on a list, got %v", err)
	}

	// Set overwrites regardless of the kind
	database.Set("list", []byte("now plain"))
	if val, ok, err := database.Get("list"); err != nil || !ok || string(val) != "now plain" {
		t.Errorf("Expected Set to overwrite a list, got %q (found=%v, err=%v)", val, ok, err)
	}
}

func testSetNXDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetNX|db.FeatureDelete|db.FeatureGet)

	if !database.SetNX("nx", []byte("first"), 0) {
		t.Fatalf("Expected SetNX on a missing key to succeed")
	}
	if database.SetNX("nx", []byte("second"), 0) {
		t.Errorf("Expected SetNX on an existing key to fail")
	}
	if val, _, _ := database.Get("nx"); string(val) != "first" {
		t.Errorf("Expected value first, got %s", val)
	}

	database.Delete("nx")
	if _, ok, _ := database.Get("nx"); ok {
		t.Errorf("Expected key to be gone after Delete")
	}
	database.Delete("nx") // deleting a missing key is a no-op

	if !database.SetNX("nx", []byte("third"), time.Hour) {
		t.Errorf("Expected SetNX to succeed after Delete")
	}
}

func testFlush(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureFlush|db.FeatureSet|db.FeatureGet|db.FeatureRPush|db.FeatureLRange)

	for i := 0; i < 100; i++ {
		database.Set(fmt.Sprintf("key-%d", i), []byte("value"))
	}
	_, _ = database.RPush("list", []byte("x"))

	database.Flush()

	for i := 0; i < 100; i++ {
		if _, ok, _ := database.Get(fmt.Sprintf("key-%d", i)); ok {
			t.Fatalf("Expected key-%d to be gone after Flush", i)
		}
	}
	if values, _ := database.LRange("list", 0, -1); len(values) != 0 {
		t.Errorf("Expected list to be gone after Flush")
	}
	if info := database.GetInfo(); info.Keys != 0 {
		t.Errorf("Expected 0 keys after Flush, got %d", info.Keys)
	}
}

func testConcurrentIncr(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureIncr)

	const (
		workers = 16
		perWork = 250
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				if _, err := database.Incr("shared"); err != nil {
					t.Errorf("Incr failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	n, _ := database.Incr("shared")
	if n != workers*perWork+1 {
		t.Errorf("Expected %d increments, got %d", workers*perWork+1, n)
	}
}

func testConcurrentRPush(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureRPush|db.FeatureLRange)

	const (
		workers = 8
		perWork = 200
	)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				if _, err := database.RPush("shared-list", []byte(fmt.Sprintf("%d-%d", w, i))); err != nil {
					t.Errorf("RPush failed: %v", err)
					return
				}
				// concurrent readers must always see a consistent prefix
				if _, err := database.LRange("shared-list", 0, -1); err != nil {
					t.Errorf("LRange failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	values, _ := database.LRange("shared-list", 0, -1)
	if len(values) != workers*perWork {
		t.Fatalf("Expected %d items, got %d", workers*perWork, len(values))
	}

	// per worker order must be preserved
	next := make(map[int]int)
	for _, v := range values {
		var w, i int
		if _, err := fmt.Sscanf(string(v), "%d-%d", &w, &i); err != nil {
			t.Fatalf("unexpected item %q", v)
		}
		if i != next[w] {
			t.Fatalf("worker %d: expected item %d, got %d", w, next[w], i)
		}
		next[w]++
	}
}
