// ABOUTME: Tests for generic records and patches
// ABOUTME: Validates patch application, cloning, and identifier access
package objects

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestApplyPatch(t *testing.T) {
	rec := Record{"id": "c1", "name": "Ada", "status": "NEW", "tags": []any{"vip"}}

	got := ApplyPatch(rec, Patch{"status": "CONTACTED", "companyId": nil})

	want := Record{"id": "c1", "name": "Ada", "status": "CONTACTED", "tags": []any{"vip"}, "companyId": nil}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ApplyPatch mismatch (-want +got):\n%s", diff)
	}

	// Original untouched
	assert.Equal(t, "NEW", rec["status"])
	_, has := rec["companyId"]
	assert.False(t, has)
}

func TestApplyPatchNilRecord(t *testing.T) {
	got := ApplyPatch(nil, Patch{"id": "x"})
	assert.Equal(t, Record{"id": "x"}, got)
}

func TestCloneIsDeep(t *testing.T) {
	rec := Record{
		"id":        "t1",
		"checklist": []any{map[string]any{"title": "a", "checked": false}},
		"userIds":   []string{"u1"},
	}
	cp := rec.Clone()

	cp["checklist"].([]any)[0].(map[string]any)["checked"] = true
	cp["userIds"].([]string)[0] = "u2"

	assert.Equal(t, false, rec["checklist"].([]any)[0].(map[string]any)["checked"])
	assert.Equal(t, "u1", rec["userIds"].([]string)[0])
	assert.False(t, rec.Equal(cp))
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "c1", Record{"id": "c1"}.ID())
	assert.Equal(t, "", Record{"id": 5}.ID())
	assert.Equal(t, "", Record(nil).ID())
}

func TestPatchClone(t *testing.T) {
	p := Patch{"users": []any{"u1"}}
	cp := p.Clone()
	cp["users"].([]any)[0] = "u9"
	assert.Equal(t, "u1", p["users"].([]any)[0])
	assert.Nil(t, Patch(nil).Clone())
}
