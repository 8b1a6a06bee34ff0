// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestNewQuery(t *testing.T) {
	q := NewQuery("what is attention", "session-1")

	if q.ID == "" {
		t.Error("NewQuery must assign an ID")
	}
	if q.Submitted.IsZero() {
		t.Error("NewQuery must stamp the submission time")
	}
	if q.IsEmpty() {
		t.Error("query with text reported empty")
	}

	other := NewQuery("what is attention", "session-1")
	if other.ID == q.ID {
		t.Error("two queries share an ID")
	}
}

func TestQueryIsEmpty(t *testing.T) {
	if !(Query{}).IsEmpty() {
		t.Error("zero query must report empty")
	}
	if !NewQuery("", "session-1").IsEmpty() {
		t.Error("query without text must report empty")
	}
}
