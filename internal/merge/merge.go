// Copyright (c) 2024 @neongreen (https://github.com/neongreen)
// Originally from: https://github.com/neongreen/mono/tree/main/beads-merge
//
// MIT License
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// ---
// Vendored into beads with permission from @neongreen; adapted from a 3-way
// whole-record JSONL merge down to field-level last-write-wins merge for
// sync of offline-edited Rows and TM Entries.
// See: https://github.com/neongreen/mono/issues/240

// Package merge implements the last-write-wins field merge used when
// reconciling an offline-edited Row or TMEntry against the server's copy.
package merge

import "github.com/ldm-sh/ldm/internal/types"

// Winner names which side's value was kept for one compared field.
type Winner int

const (
	WinnerLocal Winner = iota
	WinnerRemote
)

// FieldDecision records the outcome of comparing one field between the
// local and remote copies of a record.
type FieldDecision struct {
	Field  string
	Winner Winner
}

// Newer compares two ISO-8601 UTC millisecond timestamps lexicographically,
// per the documented merge rule: equal timestamps resolve to "local wins"
// so a user never silently loses work to a server round-trip, and any
// timestamp that isn't actually ISO-8601 breaks the lexicographic ordering
// guarantee (callers are responsible for only ever storing conforming
// strings in updated_at).
func Newer(localUpdatedAt, remoteUpdatedAt string) Winner {
	if remoteUpdatedAt > localUpdatedAt {
		return WinnerRemote
	}
	return WinnerLocal
}

// RowResult is the outcome of merging one Row.
type RowResult struct {
	Merged    types.Row
	Decisions []FieldDecision
}

// MergeRow reconciles a locally-edited Row against the server's copy of the
// same row (matched by ID beforehand by the caller). Newer picks one winner
// for the whole record from the two UpdatedAt values, and every mutable
// field takes that winner's value; fields are not decided independently. Immutable
// identity fields (ID, FileID, RowNum) always come from local since they
// cannot diverge without a different row entirely.
func MergeRow(local, remote types.Row) RowResult {
	winner := Newer(local.UpdatedAt.UTC().Format(iso8601Millis), remote.UpdatedAt.UTC().Format(iso8601Millis))

	merged := local
	var decisions []FieldDecision
	apply := func(field string, setRemote func()) {
		if winner == WinnerRemote {
			setRemote()
			decisions = append(decisions, FieldDecision{Field: field, Winner: WinnerRemote})
		} else {
			decisions = append(decisions, FieldDecision{Field: field, Winner: WinnerLocal})
		}
	}

	apply("target", func() { merged.Target = remote.Target })
	apply("status", func() { merged.Status = remote.Status })
	apply("memo", func() { merged.Memo = remote.Memo })
	apply("extra_data", func() { merged.ExtraData = remote.ExtraData })

	return RowResult{Merged: merged, Decisions: decisions}
}

// TMEntryResult is the outcome of merging one TMEntry.
type TMEntryResult struct {
	Merged    types.TMEntry
	Decisions []FieldDecision
}

// MergeTMEntry reconciles a locally-edited TM entry against the server's
// copy, using the entries' own UpdatedAt strings (already ISO-8601 UTC
// millisecond, per the TM entry contract) rather than re-formatting a
// time.Time.
func MergeTMEntry(local, remote types.TMEntry) TMEntryResult {
	winner := Newer(local.UpdatedAt, remote.UpdatedAt)

	merged := local
	var decisions []FieldDecision
	apply := func(field string, setRemote func()) {
		if winner == WinnerRemote {
			setRemote()
			decisions = append(decisions, FieldDecision{Field: field, Winner: WinnerRemote})
		} else {
			decisions = append(decisions, FieldDecision{Field: field, Winner: WinnerLocal})
		}
	}

	apply("target_text", func() { merged.TargetText = remote.TargetText })
	apply("is_confirmed", func() { merged.IsConfirmed = remote.IsConfirmed })
	apply("confirmed_by", func() { merged.ConfirmedBy = remote.ConfirmedBy })

	return TMEntryResult{Merged: merged, Decisions: decisions}
}

const iso8601Millis = "2006-01-02T15:04:05.000Z"
