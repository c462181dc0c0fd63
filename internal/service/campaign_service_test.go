package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirihq/newsletter-service/internal/dispatch"
	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/model"
	"github.com/dirihq/newsletter-service/internal/queue"
	"github.com/dirihq/newsletter-service/internal/service"
)

// --- fakes -----------------------------------------------------------------

type fakeCampaignRepo struct {
	Created  []*model.Campaign
	Updated  []*model.Campaign
	Deleted  []string
	Existing map[string]*model.Campaign
}

func (f *fakeCampaignRepo) Create(c *model.Campaign) error {
	if c.ID == "" {
		c.ID = fmt.Sprintf("cmp-%d", len(f.Created)+1)
	}
	f.Created = append(f.Created, c)
	return nil
}

func (f *fakeCampaignRepo) Update(c *model.Campaign) error {
	f.Updated = append(f.Updated, c)
	return nil
}

func (f *fakeCampaignRepo) Delete(id string) error {
	if f.Existing != nil {
		if _, ok := f.Existing[id]; !ok {
			return appErrors.NewCampaignNotFound(id)
		}
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

func (f *fakeCampaignRepo) GetByID(id string) (*model.Campaign, error) {
	if c, ok := f.Existing[id]; ok {
		return c, nil
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (f *fakeCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	return nil, 0, nil
}

type fakeSegmentRepo struct {
	Segments map[string]*model.Segment
}

func (f *fakeSegmentRepo) GetAll() ([]model.Segment, error) { return nil, nil }

func (f *fakeSegmentRepo) Create(name string) (*model.Segment, error) { return nil, nil }

func (f *fakeSegmentRepo) GetSubscribers(int) ([]model.Subscriber, error) { return nil, nil }

func (f *fakeSegmentRepo) FindByName(name string) (*model.Segment, error) {
	return f.Segments[name], nil
}

type fakeSnapshotStore struct {
	Objects map[string][]byte
	Deleted []string
	Ops     *[]string
}

func (f *fakeSnapshotStore) Put(_ context.Context, key string, blob []byte) error {
	if f.Objects == nil {
		f.Objects = map[string][]byte{}
	}
	f.Objects[key] = blob
	return nil
}

func (f *fakeSnapshotStore) Get(_ context.Context, key string) ([]byte, error) {
	blob, ok := f.Objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return blob, nil
}

func (f *fakeSnapshotStore) Delete(_ context.Context, key string) error {
	f.Deleted = append(f.Deleted, key)
	if f.Ops != nil {
		*f.Ops = append(*f.Ops, "snapshot:"+key)
	}
	return nil
}

type scheduleCall struct {
	Name    string
	At      time.Time
	Payload model.SendPayload
}

type fakeScheduleManager struct {
	Created []scheduleCall
	Updated []scheduleCall
	Deleted []string
	Ops     *[]string
}

func (f *fakeScheduleManager) Create(_ context.Context, name string, at time.Time, payload model.SendPayload) error {
	f.Created = append(f.Created, scheduleCall{name, at, payload})
	return nil
}

func (f *fakeScheduleManager) Update(_ context.Context, name string, at time.Time, payload model.SendPayload) error {
	f.Updated = append(f.Updated, scheduleCall{name, at, payload})
	return nil
}

func (f *fakeScheduleManager) Delete(_ context.Context, name string) error {
	// A schedule that already fired deletes itself; treat every name as gone-ok.
	f.Deleted = append(f.Deleted, name)
	if f.Ops != nil {
		*f.Ops = append(*f.Ops, "schedule:"+name)
	}
	return nil
}

type dispatchCall struct {
	Content    model.Content
	Recipients []model.Recipient
}

type fakeDispatcher struct {
	Calls []dispatchCall
	Err   error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, content model.Content, recipients []model.Recipient) error {
	if f.Err != nil {
		return f.Err
	}
	f.Calls = append(f.Calls, dispatchCall{content, recipients})
	return nil
}

// FakeTransport records batches so the real dispatcher can run end to end.
type FakeTransport struct {
	Batches [][]queue.Entry
}

func (f *FakeTransport) SubmitBatch(_ context.Context, entries []queue.Entry) error {
	f.Batches = append(f.Batches, entries)
	return nil
}

// --- helpers ---------------------------------------------------------------

func fixedNow() time.Time {
	return time.Date(2025, 10, 1, 8, 30, 0, 0, time.UTC)
}

func subscribers(n int) []model.Subscriber {
	subs := make([]model.Subscriber, 0, n)
	for i := 0; i < n; i++ {
		subs = append(subs, model.Subscriber{
			ID:    fmt.Sprintf("subiber%d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		})
	}
	return subs
}

func newService(repo *fakeCampaignRepo, store *fakeSnapshotStore, sched *fakeScheduleManager, disp service.Dispatcher) *service.CampaignService {
	return &service.CampaignService{
		CampaignRepo: repo,
		SegmentRepo:  &fakeSegmentRepo{},
		Snapshots:    store,
		Scheduler:    sched,
		Dispatcher:   disp,
		Now:          fixedNow,
	}
}

// --- tests -----------------------------------------------------------------

func TestSaveSendNowDispatchesInBatches(t *testing.T) {
	repo := &fakeCampaignRepo{}
	store := &fakeSnapshotStore{}
	sched := &fakeScheduleManager{}
	transport := &FakeTransport{}
	svc := newService(repo, store, sched, dispatch.New(transport, "https://news.example.com"))

	subs := subscribers(7)
	subs = append(subs, model.Subscriber{ID: "subibergone", Email: "gone@example.com", IsDeactive: true})

	campaign, err := svc.Save(context.Background(), service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "October Update",
		BodyHTML:      "<p>news</p>",
		BodyPlainText: "news",
		Subscribers:   subs,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSent, campaign.Status)
	assert.Equal(t, 7, campaign.TotalRecipients)
	assert.Nil(t, campaign.ScheduleKey)
	assert.Empty(t, sched.Created)

	// Seven recipients split five and two.
	require.Len(t, transport.Batches, 2)
	assert.Len(t, transport.Batches[0], 5)
	assert.Len(t, transport.Batches[1], 2)

	// Deactivated subscriber never reaches the queue or the snapshot.
	for _, b := range transport.Batches {
		for _, e := range b {
			assert.NotContains(t, e.Body, "gone@example.com")
		}
	}
	blob := store.Objects[campaign.SnapshotKey]
	require.NotNil(t, blob)
	var payload model.SendPayload
	require.NoError(t, json.Unmarshal(blob, &payload))
	assert.Len(t, payload.ToAddress, 7)
}

func TestSaveScheduledCreatesSchedule(t *testing.T) {
	repo := &fakeCampaignRepo{}
	store := &fakeSnapshotStore{}
	sched := &fakeScheduleManager{}
	disp := &fakeDispatcher{}
	svc := newService(repo, store, sched, disp)

	at := fixedNow().Add(2 * time.Hour)
	campaign, err := svc.Save(context.Background(), service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "Launch Day",
		BodyHTML:      "<p>soon</p>",
		BodyPlainText: "soon",
		Subscribers:   subscribers(3),
		ScheduleTime:  &at,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusScheduled, campaign.Status)
	require.NotNil(t, campaign.ScheduleKey)
	assert.Equal(t, campaign.SnapshotKey, *campaign.ScheduleKey)
	require.NotNil(t, campaign.ScheduleDate)
	assert.True(t, campaign.ScheduleDate.Equal(at))

	require.Len(t, sched.Created, 1)
	assert.Equal(t, campaign.SnapshotKey, sched.Created[0].Name)
	assert.True(t, sched.Created[0].At.Equal(at))
	assert.Len(t, sched.Created[0].Payload.ToAddress, 3)
	assert.Empty(t, disp.Calls)
}

func TestSaveRejectsShortLeadTime(t *testing.T) {
	repo := &fakeCampaignRepo{}
	store := &fakeSnapshotStore{}
	sched := &fakeScheduleManager{}
	svc := newService(repo, store, sched, &fakeDispatcher{})

	at := fixedNow().Add(10 * time.Minute)
	_, err := svc.Save(context.Background(), service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "Too Late",
		BodyHTML:      "<p>h</p>",
		BodyPlainText: "t",
		Subscribers:   subscribers(1),
		ScheduleTime:  &at,
	})
	assert.ErrorIs(t, err, appErrors.ErrScheduleTooSoon)

	// Nothing was touched: no snapshot, no record, no schedule.
	assert.Empty(t, store.Objects)
	assert.Empty(t, repo.Created)
	assert.Empty(t, sched.Created)
}

func TestSaveRejectsMissingContent(t *testing.T) {
	repo := &fakeCampaignRepo{}
	svc := newService(repo, &fakeSnapshotStore{}, &fakeScheduleManager{}, &fakeDispatcher{})

	_, err := svc.Save(context.Background(), service.SaveCampaignInput{
		SegmentName: "All Subscribers",
		Subject:     "No Body",
		BodyHTML:    "",
		Subscribers: subscribers(1),
	})
	assert.ErrorIs(t, err, appErrors.ErrMissingContent)
	assert.Empty(t, repo.Created)
}

func TestSaveDraftSkipsDispatchAndSchedule(t *testing.T) {
	repo := &fakeCampaignRepo{}
	store := &fakeSnapshotStore{}
	sched := &fakeScheduleManager{}
	disp := &fakeDispatcher{}
	svc := newService(repo, store, sched, disp)

	campaign, err := svc.Save(context.Background(), service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "Work In Progress",
		BodyHTML:      "<p>wip</p>",
		BodyPlainText: "wip",
		Subscribers:   subscribers(2),
		AsDraft:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, campaign.Status)
	assert.Empty(t, disp.Calls)
	assert.Empty(t, sched.Created)
	// The snapshot is still written so the draft can be reopened.
	assert.Contains(t, store.Objects, campaign.SnapshotKey)
}

func TestUpdateKeepsSnapshotKeyAndUpdatesSchedule(t *testing.T) {
	key := "Launch_Day_1700000000000"
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{
		"cmp-1": {
			ID:          "cmp-1",
			Title:       "Launch Day",
			SnapshotKey: key,
			Status:      model.StatusScheduled,
			ScheduleKey: &key,
		},
	}}
	store := &fakeSnapshotStore{}
	sched := &fakeScheduleManager{}
	svc := newService(repo, store, sched, &fakeDispatcher{})

	newAt := fixedNow().Add(5 * time.Hour)
	campaign, err := svc.Update(context.Background(), "cmp-1", service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "Launch Day v2",
		BodyHTML:      "<p>v2</p>",
		BodyPlainText: "v2",
		Subscribers:   subscribers(4),
		ScheduleTime:  &newAt,
	})
	require.NoError(t, err)

	// The original key stays for life; the existing schedule is updated in place.
	assert.Equal(t, key, campaign.SnapshotKey)
	assert.Contains(t, store.Objects, key)
	require.Len(t, sched.Updated, 1)
	assert.Equal(t, key, sched.Updated[0].Name)
	assert.Empty(t, sched.Created)
	require.Len(t, repo.Updated, 1)
}

func TestUpdateCreatesScheduleWhenNewlyScheduled(t *testing.T) {
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{
		"cmp-1": {ID: "cmp-1", Title: "Draft", SnapshotKey: "Draft_1700000000000", Status: model.StatusDraft},
	}}
	sched := &fakeScheduleManager{}
	svc := newService(repo, &fakeSnapshotStore{}, sched, &fakeDispatcher{})

	at := fixedNow().Add(2 * time.Hour)
	campaign, err := svc.Update(context.Background(), "cmp-1", service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "Draft",
		BodyHTML:      "<p>h</p>",
		BodyPlainText: "t",
		Subscribers:   subscribers(1),
		ScheduleTime:  &at,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusScheduled, campaign.Status)
	require.Len(t, sched.Created, 1)
	assert.Equal(t, "Draft_1700000000000", sched.Created[0].Name)
	assert.Empty(t, sched.Updated)
}

func TestUpdateRemovingScheduleDeletesIt(t *testing.T) {
	key := "Launch_Day_1700000000000"
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{
		"cmp-1": {ID: "cmp-1", Title: "Launch Day", SnapshotKey: key, Status: model.StatusScheduled, ScheduleKey: &key},
	}}
	sched := &fakeScheduleManager{}
	disp := &fakeDispatcher{}
	svc := newService(repo, &fakeSnapshotStore{}, sched, disp)

	// Back to draft: the external schedule must go, nothing is dispatched.
	campaign, err := svc.Update(context.Background(), "cmp-1", service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "Launch Day",
		BodyHTML:      "<p>h</p>",
		BodyPlainText: "t",
		Subscribers:   subscribers(1),
		AsDraft:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, campaign.Status)
	assert.Equal(t, []string{key}, sched.Deleted)
	assert.Empty(t, disp.Calls)
	assert.Nil(t, campaign.ScheduleKey)
}

func TestUpdateSendNowDeletesScheduleThenDispatches(t *testing.T) {
	key := "Launch_Day_1700000000000"
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{
		"cmp-1": {ID: "cmp-1", Title: "Launch Day", SnapshotKey: key, Status: model.StatusScheduled, ScheduleKey: &key},
	}}
	sched := &fakeScheduleManager{}
	disp := &fakeDispatcher{}
	svc := newService(repo, &fakeSnapshotStore{}, sched, disp)

	campaign, err := svc.Update(context.Background(), "cmp-1", service.SaveCampaignInput{
		SegmentName:   "All Subscribers",
		Subject:       "Launch Day",
		BodyHTML:      "<p>h</p>",
		BodyPlainText: "t",
		Subscribers:   subscribers(2),
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusSent, campaign.Status)
	assert.Equal(t, []string{key}, sched.Deleted)
	require.Len(t, disp.Calls, 1)
	assert.Len(t, disp.Calls[0].Recipients, 2)
}

func TestDeleteScheduledCampaignCleansUpEverything(t *testing.T) {
	ops := []string{}
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{"cmp-1": {ID: "cmp-1"}}}
	store := &fakeSnapshotStore{Objects: map[string][]byte{"Launch_Day_1700000000000": []byte("{}")}, Ops: &ops}
	sched := &fakeScheduleManager{Ops: &ops}
	svc := newService(repo, store, sched, &fakeDispatcher{})

	err := svc.Delete(context.Background(), "cmp-1", "Launch_Day_1700000000000", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"cmp-1"}, repo.Deleted)
	// Snapshot goes before the schedule.
	assert.Equal(t, []string{"snapshot:Launch_Day_1700000000000", "schedule:Launch_Day_1700000000000"}, ops)
}

func TestDeleteUnscheduledSkipsScheduleManager(t *testing.T) {
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{"cmp-1": {ID: "cmp-1"}}}
	store := &fakeSnapshotStore{Objects: map[string][]byte{"k": []byte("{}")}}
	sched := &fakeScheduleManager{}
	svc := newService(repo, store, sched, &fakeDispatcher{})

	require.NoError(t, svc.Delete(context.Background(), "cmp-1", "k", false))
	assert.Empty(t, sched.Deleted)
	assert.Equal(t, []string{"k"}, store.Deleted)
}

func TestDeleteUnknownCampaign(t *testing.T) {
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{}}
	store := &fakeSnapshotStore{}
	svc := newService(repo, store, &fakeScheduleManager{}, &fakeDispatcher{})

	err := svc.Delete(context.Background(), "missing", "k", false)
	var notFound *appErrors.ErrCampaignNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, store.Deleted)
}

func TestFindReturnsSnapshotAndSegment(t *testing.T) {
	repo := &fakeCampaignRepo{Existing: map[string]*model.Campaign{
		"cmp-1": {ID: "cmp-1", Title: "Launch Day", SnapshotKey: "k", SegmentList: []string{"All Subscribers"}},
	}}
	store := &fakeSnapshotStore{Objects: map[string][]byte{"k": []byte(`{"subject":"Launch Day"}`)}}
	svc := newService(repo, store, &fakeScheduleManager{}, &fakeDispatcher{})
	svc.SegmentRepo = &fakeSegmentRepo{Segments: map[string]*model.Segment{
		"All Subscribers": {ID: 7, Name: "All Subscribers"},
	}}

	details, err := svc.Find(context.Background(), "cmp-1")
	require.NoError(t, err)

	assert.Equal(t, "All Subscribers", details.SegmentName)
	assert.Equal(t, "7", details.SegmentID)
	assert.JSONEq(t, `{"subject":"Launch Day"}`, details.ObjectData)
}
