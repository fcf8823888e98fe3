package followup_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followup/internal/followup"
	"followup/internal/service"
	"followup/internal/testutil"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("uuid-%d", n)
	}
}

func event(item service.Item) service.Event {
	return service.Event{Name: "item:completed", Data: item}
}

// moveArgsJSON renders a move command's args the way they go over the wire.
func moveArgsJSON(t *testing.T, cmd service.Command) map[string]string {
	t.Helper()
	data, err := json.Marshal(cmd.Args)
	require.NoError(t, err)
	var out map[string]string
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHandle_WithoutLabel_NoCalls(t *testing.T) {
	svc := testutil.NewFakeService()
	p := followup.New(svc)

	res, err := p.Handle(context.Background(), event(service.Item{
		ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"errand"},
	}))

	require.NoError(t, err)
	assert.Equal(t, followup.NotEligible, res.Outcome)
	assert.Equal(t, followup.ReasonMissingLabel, res.Reason)
	assert.Zero(t, svc.Calls())
}

func TestHandle_WithoutParent_NoCalls(t *testing.T) {
	svc := testutil.NewFakeService()
	p := followup.New(svc)

	res, err := p.Handle(context.Background(), event(service.Item{
		ID: "42", ProjectID: "PR", Labels: []string{"follow-up"},
	}))

	require.NoError(t, err)
	assert.Equal(t, followup.NotEligible, res.Outcome)
	assert.Equal(t, followup.ReasonNoParent, res.Reason)
	assert.Zero(t, svc.Calls())
}

func TestHandle_AncestorCount_OnlyReads(t *testing.T) {
	item := service.Item{ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up"}}

	for _, ancestors := range [][]service.Item{
		nil,
		{{ID: "10", ParentID: testutil.Ptr("1")}, {ID: "1"}},
		{{ID: "10"}, {ID: "1"}, {ID: "0"}},
	} {
		svc := testutil.NewFakeService()
		svc.SetItem(item, ancestors...)
		p := followup.New(svc)

		res, err := p.Handle(context.Background(), event(item))

		require.NoError(t, err)
		assert.Equal(t, followup.Aborted, res.Outcome)
		assert.Equal(t, followup.ReasonUnsupportedNesting, res.Reason)
		assert.Equal(t, []string{"42"}, svc.GetItemCalls())
		assert.Empty(t, svc.Batches(), "ancestors=%d", len(ancestors))
	}
}

func TestHandle_EmptyLookup(t *testing.T) {
	svc := testutil.NewFakeService()
	p := followup.New(svc)

	res, err := p.Handle(context.Background(), event(service.Item{
		ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up"},
	}))

	require.NoError(t, err)
	assert.Equal(t, followup.Aborted, res.Outcome)
	assert.Equal(t, followup.ReasonEmptyResponse, res.Reason)
	assert.Len(t, svc.GetItemCalls(), 1)
	assert.Empty(t, svc.Batches())
}

func TestHandle_LookupError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.GetItemErr = errors.New("unreachable")
	p := followup.New(svc)

	res, err := p.Handle(context.Background(), event(service.Item{
		ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up"},
	}))

	assert.Error(t, err)
	assert.Equal(t, followup.Aborted, res.Outcome)
	assert.Equal(t, followup.ReasonFetchFailed, res.Reason)
	assert.Empty(t, svc.Batches())
}

func TestHandle_SyncError(t *testing.T) {
	item := service.Item{ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up"}}
	svc := testutil.NewFakeService()
	svc.SetItem(item, service.Item{ID: "10", ProjectID: "PR"})
	svc.SyncErr = errors.New("boom")
	p := followup.New(svc)

	res, err := p.Handle(context.Background(), event(item))

	assert.Error(t, err)
	assert.Equal(t, followup.Aborted, res.Outcome)
	assert.Equal(t, followup.ReasonSyncFailed, res.Reason)
	assert.Len(t, res.Commands, 3)
	assert.Len(t, svc.Batches(), 1)
}

func TestResolveContainer(t *testing.T) {
	tests := []struct {
		name     string
		ancestor service.Item
		item     service.Item
		want     map[string]string
	}{
		{
			name:     "ancestor parent wins",
			ancestor: service.Item{ID: "10", ParentID: testutil.Ptr("P"), SectionID: testutil.Ptr("AS")},
			item:     service.Item{ID: "42", SectionID: testutil.Ptr("S"), ProjectID: "PR"},
			want:     map[string]string{"id": "42", "parent_id": "P"},
		},
		{
			name:     "item section",
			ancestor: service.Item{ID: "10"},
			item:     service.Item{ID: "42", SectionID: testutil.Ptr("S"), ProjectID: "PR"},
			want:     map[string]string{"id": "42", "section_id": "S"},
		},
		{
			name:     "project fallback",
			ancestor: service.Item{ID: "10", SectionID: testutil.Ptr("AS")},
			item:     service.Item{ID: "42", ProjectID: "PR"},
			want:     map[string]string{"id": "42", "project_id": "PR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, ok := followup.Plan(&service.ItemWithAncestors{
				Ancestors: []service.Item{tt.ancestor},
				Item:      tt.item,
			}, "follow-up", sequentialIDs())
			require.True(t, ok)

			assert.Equal(t, service.CommandItemMove, cmds[0].Type)
			assert.Equal(t, tt.want, moveArgsJSON(t, cmds[0]))
		})
	}
}

func TestPlan_LabelFilter(t *testing.T) {
	cmds, ok := followup.Plan(&service.ItemWithAncestors{
		Ancestors: []service.Item{{ID: "10"}},
		Item:      service.Item{ID: "42", ProjectID: "PR", Labels: []string{"a", "follow-up", "b"}},
	}, "follow-up", sequentialIDs())
	require.True(t, ok)

	update, isUpdate := cmds[1].Args.(service.UpdateArgs)
	require.True(t, isUpdate)
	assert.Equal(t, []string{"a", "b"}, update.Labels)
}

func TestPlan_BatchShape(t *testing.T) {
	cmds, ok := followup.Plan(&service.ItemWithAncestors{
		Ancestors: []service.Item{{ID: "10"}},
		Item:      service.Item{ID: "42", ProjectID: "PR", Labels: []string{"follow-up"}},
	}, "follow-up", uuid.NewString)
	require.True(t, ok)
	require.Len(t, cmds, 3)

	assert.Equal(t, service.CommandItemMove, cmds[0].Type)
	assert.Equal(t, service.CommandItemUpdate, cmds[1].Type)
	assert.Equal(t, service.CommandItemUncomplete, cmds[2].Type)

	seen := map[string]bool{}
	for _, c := range cmds {
		assert.NotEmpty(t, c.UUID)
		assert.False(t, seen[c.UUID], "duplicate uuid %s", c.UUID)
		seen[c.UUID] = true
	}
}

func TestPlan_RequiresSingleAncestor(t *testing.T) {
	_, ok := followup.Plan(nil, "follow-up", sequentialIDs())
	assert.False(t, ok)

	_, ok = followup.Plan(&service.ItemWithAncestors{}, "follow-up", sequentialIDs())
	assert.False(t, ok)
}

func TestHandle_EndToEnd(t *testing.T) {
	item := service.Item{ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up"}}
	svc := testutil.NewFakeService()
	svc.SetItem(item, service.Item{ID: "10", ParentID: testutil.Ptr("1"), ProjectID: "PR"})
	p := followup.New(svc, followup.WithIDGenerator(sequentialIDs()))

	res, err := p.Handle(context.Background(), event(item))
	require.NoError(t, err)
	assert.Equal(t, followup.Submitted, res.Outcome)

	batches := svc.Batches()
	require.Len(t, batches, 1)

	data, err := json.Marshal(batches[0])
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type": "item_move", "uuid": "uuid-1", "args": {"id": "42", "parent_id": "1"}},
		{"type": "item_update", "uuid": "uuid-2", "args": {"id": "42", "labels": []}},
		{"type": "item_uncomplete", "uuid": "uuid-3", "args": {"id": "42"}}
	]`, string(data))
}

func TestHandle_UsesFetchedItem(t *testing.T) {
	stale := service.Item{ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up"}}
	fresh := service.Item{ID: "42", ParentID: testutil.Ptr("10"), SectionID: testutil.Ptr("S"), ProjectID: "PR", Labels: []string{"x", "follow-up"}}

	svc := testutil.NewFakeService()
	svc.SetItem(fresh, service.Item{ID: "10"})
	p := followup.New(svc, followup.WithIDGenerator(sequentialIDs()))

	res, err := p.Handle(context.Background(), event(stale))
	require.NoError(t, err)
	require.Equal(t, followup.Submitted, res.Outcome)

	assert.Equal(t, map[string]string{"id": "42", "section_id": "S"}, moveArgsJSON(t, res.Commands[0]))
	assert.Equal(t, []string{"x"}, res.Commands[1].Args.(service.UpdateArgs).Labels)
}

func TestHandle_CustomLabel(t *testing.T) {
	item := service.Item{ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up", "later"}}
	svc := testutil.NewFakeService()
	svc.SetItem(item, service.Item{ID: "10"})
	p := followup.New(svc, followup.WithLabel("later"))

	res, err := p.Handle(context.Background(), event(item))
	require.NoError(t, err)
	require.Equal(t, followup.Submitted, res.Outcome)
	assert.Equal(t, []string{"follow-up"}, res.Commands[1].Args.(service.UpdateArgs).Labels)
}

func TestPrepare_DoesNotSync(t *testing.T) {
	item := service.Item{ID: "42", ParentID: testutil.Ptr("10"), ProjectID: "PR", Labels: []string{"follow-up"}}
	svc := testutil.NewFakeService()
	svc.SetItem(item, service.Item{ID: "10"})
	p := followup.New(svc)

	res, err := p.Prepare(context.Background(), event(item))
	require.NoError(t, err)
	assert.Equal(t, followup.Planned, res.Outcome)
	assert.Len(t, res.Commands, 3)
	assert.Empty(t, svc.Batches())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "not_eligible", followup.NotEligible.String())
	assert.Equal(t, "aborted", followup.Aborted.String())
	assert.Equal(t, "submitted", followup.Submitted.String())
	assert.Equal(t, "planned", followup.Planned.String())
}
