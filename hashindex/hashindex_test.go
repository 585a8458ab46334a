package hashindex

import "testing"

func TestTable(t *testing.T) {
	tests := []struct {
		scenario string
		function func(*testing.T)
	}{
		{"a newly created table contains no entries", testTableNewHasNoEntries},
		{"entries inserted can be found when looking up their keys", testTableInsertAndLookup},
		{"entries deleted are not returned anymore when looking up keys", testTableInsertAndDeleteAndLookup},
		{"deleting entries that did not exist is a no-op", testTableDeleteNotExist},
		{"inserting entries for existing keys replaces the previous values", testTableInsertAndReplace},
		{"sequential keys do not collide systematically", testTableSequentialKeys},
	}

	for _, test := range tests {
		t.Run(test.scenario, test.function)
	}
}

func testTableNewHasNoEntries(t *testing.T) {
	tbl := New[int](16)
	if n := tbl.Len(); n != 0 {
		t.Errorf("wrong number of entries: got=%d want=0", n)
	}
	if _, ok := tbl.Get(42); ok {
		t.Errorf("unexpected hit in empty table")
	}
}

func testTableInsertAndLookup(t *testing.T) {
	tbl := New[string](16)
	tbl.Put(1, "one")
	tbl.Put(2, "two")

	if v, ok := tbl.Get(1); !ok || v != "one" {
		t.Errorf("got=%q,%v want=one,true", v, ok)
	}
	if v, ok := tbl.Get(2); !ok || v != "two" {
		t.Errorf("got=%q,%v want=two,true", v, ok)
	}
	if _, ok := tbl.Get(3); ok {
		t.Errorf("unexpected hit for missing key")
	}
	if n := tbl.Len(); n != 2 {
		t.Errorf("wrong length: got=%d want=2", n)
	}
}

func testTableInsertAndDeleteAndLookup(t *testing.T) {
	tbl := New[int](16)
	tbl.Put(10, 100)
	tbl.Delete(10)

	if _, ok := tbl.Get(10); ok {
		t.Errorf("expected key to be gone after delete")
	}
	if n := tbl.Len(); n != 0 {
		t.Errorf("wrong length: got=%d want=0", n)
	}
}

func testTableDeleteNotExist(t *testing.T) {
	tbl := New[int](16)
	tbl.Delete(999) // no panic, no-op
	if n := tbl.Len(); n != 0 {
		t.Errorf("wrong length: got=%d want=0", n)
	}
}

func testTableInsertAndReplace(t *testing.T) {
	tbl := New[int](16)
	tbl.Put(5, 1)
	tbl.Put(5, 2)

	if v, ok := tbl.Get(5); !ok || v != 2 {
		t.Errorf("got=%d,%v want=2,true", v, ok)
	}
	if n := tbl.Len(); n != 1 {
		t.Errorf("wrong length: got=%d want=1", n)
	}
}

func testTableSequentialKeys(t *testing.T) {
	const n = 64
	tbl := New[int](n)
	for i := uint64(0); i < n; i++ {
		tbl.Put(i, int(i))
	}
	for i := uint64(0); i < n; i++ {
		if v, ok := tbl.Get(i); !ok || v != int(i) {
			t.Fatalf("key %d: got=%d,%v want=%d,true", i, v, ok, i)
		}
	}
	if got := tbl.Len(); got != n {
		t.Errorf("wrong length: got=%d want=%d", got, n)
	}
}

func TestTableTombstoneReuse(t *testing.T) {
	tbl := New[int](4)
	tbl.Put(1, 1)
	tbl.Put(2, 2)
	tbl.Delete(1)
	tbl.Put(3, 3)

	if v, ok := tbl.Get(2); !ok || v != 2 {
		t.Errorf("got=%d,%v want=2,true", v, ok)
	}
	if v, ok := tbl.Get(3); !ok || v != 3 {
		t.Errorf("got=%d,%v want=3,true", v, ok)
	}
	if _, ok := tbl.Get(1); ok {
		t.Errorf("deleted key 1 should not be found")
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
