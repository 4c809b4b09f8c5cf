package cache

import "testing"

type accounts struct {
	Largest []string
}

func TestReduce_NeverFetchedIsAbsent(t *testing.T) {
	state := NewState[accounts]("mainnet")
	if _, ok := state.Entries["ACC1"]; ok {
		t.Fatal("unexpected entry for never-fetched key")
	}
}

func TestReduce_Lifecycle(t *testing.T) {
	state := NewState[accounts]("mainnet")

	state = Reduce(state, StartFetch[accounts]("ACC1", "mainnet"))
	entry, ok := state.Entries["ACC1"]
	if !ok {
		t.Fatal("entry missing after StartFetch")
	}
	if entry.Status != Fetching || entry.Data != nil {
		t.Errorf("after StartFetch: status = %s, data = %v", entry.Status, entry.Data)
	}

	want := accounts{Largest: []string{"a", "b"}}
	state = Reduce(state, Complete("ACC1", "mainnet", want))
	entry = state.Entries["ACC1"]
	if entry.Status != Fetched {
		t.Fatalf("status = %s, want fetched", entry.Status)
	}
	if entry.Data == nil || len(entry.Data.Largest) != 2 || entry.Data.Largest[1] != "b" {
		t.Errorf("data = %+v, want %+v", entry.Data, want)
	}

	state = Reduce(state, StartFetch[accounts]("ACC1", "mainnet"))
	if got := state.Entries["ACC1"]; got.Status != Fetching || got.Data != nil {
		t.Errorf("refetch did not replace entry: %+v", got)
	}

	state = Reduce(state, Fail[accounts]("ACC1", "mainnet"))
	entry = state.Entries["ACC1"]
	if entry.Status != FetchFailed {
		t.Errorf("status = %s, want fetchFailed", entry.Status)
	}
	if entry.Data != nil {
		t.Errorf("failed entry carries data: %+v", entry.Data)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := Reduce(NewState[accounts]("mainnet"), StartFetch[accounts]("ACC1", "mainnet"))
	after := Reduce(before, Complete("ACC1", "mainnet", accounts{}))

	if before.Entries["ACC1"].Status != Fetching {
		t.Errorf("input state modified: %s", before.Entries["ACC1"].Status)
	}
	if after.Entries["ACC1"].Status != Fetched {
		t.Errorf("next state status = %s", after.Entries["ACC1"].Status)
	}
}

func TestReduce_StaleIntentsIgnored(t *testing.T) {
	state := Reduce(NewState[accounts]("devnet"), StartFetch[accounts]("ACC2", "devnet"))

	tests := []struct {
		name   string
		intent Intent[accounts]
	}{
		{name: "start", intent: StartFetch[accounts]("ACC1", "mainnet")},
		{name: "complete", intent: Complete("ACC1", "mainnet", accounts{Largest: []string{"x"}})},
		{name: "fail", intent: Fail[accounts]("ACC2", "mainnet")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsStale(state, tt.intent) {
				t.Fatal("IsStale = false, want true")
			}
			next := Reduce(state, tt.intent)
			if _, ok := next.Entries["ACC1"]; ok {
				t.Error("stale intent created an entry")
			}
			if next.Entries["ACC2"].Status != Fetching {
				t.Errorf("stale intent changed ACC2: %s", next.Entries["ACC2"].Status)
			}
		})
	}
}

func TestReduce_Clear(t *testing.T) {
	state := Reduce(NewState[accounts]("mainnet"), Complete("ACC1", "mainnet", accounts{}))

	same := Reduce(state, Clear[accounts]("mainnet"))
	if len(same.Entries) != 1 {
		t.Errorf("clear with same context dropped entries: %d", len(same.Entries))
	}

	forced := Reduce(state, ClearAll[accounts]("mainnet"))
	if len(forced.Entries) != 0 || forced.Context != "mainnet" {
		t.Errorf("ClearAll = %+v", forced)
	}

	switched := Reduce(state, Clear[accounts]("devnet"))
	if switched.Context != "devnet" {
		t.Errorf("context = %s, want devnet", switched.Context)
	}
	if _, ok := switched.Entries["ACC1"]; ok {
		t.Error("entry survived context change")
	}
	if len(state.Entries) != 1 {
		t.Error("clear mutated the previous state")
	}
}

func TestReduce_OverlappingFetchLastCompletionWins(t *testing.T) {
	state := NewState[accounts]("mainnet")
	state = Reduce(state, StartFetch[accounts]("ACC1", "mainnet")) // fetch A
	state = Reduce(state, StartFetch[accounts]("ACC1", "mainnet")) // fetch B
	state = Reduce(state, Complete("ACC1", "mainnet", accounts{Largest: []string{"B"}}))
	state = Reduce(state, Complete("ACC1", "mainnet", accounts{Largest: []string{"A"}}))

	if got := state.Entries["ACC1"].Data.Largest[0]; got != "A" {
		t.Errorf("final data from fetch %s, want A (last completion)", got)
	}
}

func TestFetchStatus_String(t *testing.T) {
	tests := []struct {
		status FetchStatus
		want   string
	}{
		{Fetching, "fetching"},
		{Fetched, "fetched"},
		{FetchFailed, "fetchFailed"},
		{FetchStatus(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("FetchStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
