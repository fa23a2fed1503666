// Package mongotest provides in-memory implementations of the Mongo repository
// interfaces for service and task tests. Setting Err makes every call fail with it.
package mongotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/yooassist/internal/models"
	repo "github.com/yoockh/yooassist/internal/repositories/mongo"
	"github.com/yoockh/yooassist/internal/utils"
)

var (
	_ repo.FactRepository               = (*Facts)(nil)
	_ repo.SemanticRepository           = (*Semantic)(nil)
	_ repo.PreferenceRepository         = (*Preferences)(nil)
	_ repo.ReminderRepository           = (*Reminders)(nil)
	_ repo.EventRepository              = (*Events)(nil)
	_ repo.ExpenseRepository            = (*Expenses)(nil)
	_ repo.WhatsAppRepository           = (*WhatsApp)(nil)
	_ repo.MusicRepository              = (*Music)(nil)
	_ repo.PersonalizationLogRepository = (*PersonalizationLogs)(nil)
	_ repo.UserRepository               = (*Users)(nil)
	_ repo.VoiceClipRepository          = (*VoiceClips)(nil)
)

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.ErrNotFound
	}
	return oid, nil
}

func capN(n int, limit int64) int {
	if limit > 0 && int64(n) > limit {
		return int(limit)
	}
	return n
}

// newestFirst returns indexes of items sorted by ts desc; later inserts win ties.
func newestFirst(n int, ts func(i int) time.Time) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = n - 1 - i
	}
	sort.SliceStable(idx, func(a, b int) bool { return ts(idx[a]).After(ts(idx[b])) })
	return idx
}

type Facts struct {
	mu    sync.Mutex
	Items []models.Fact
	Err   error
}

func NewFacts() *Facts { return &Facts{} }

func (f *Facts) Insert(ctx context.Context, x *models.Fact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	x.ID = primitive.NewObjectID()
	if x.Timestamp.IsZero() {
		x.Timestamp = time.Now().UTC()
	}
	f.Items = append(f.Items, *x)
	return nil
}

func (f *Facts) Recent(ctx context.Context, userID string, limit int64) ([]models.Fact, error) {
	return f.filter(userID, "", limit)
}

func (f *Facts) RecentByType(ctx context.Context, userID string, typ models.FactType, limit int64) ([]models.Fact, error) {
	return f.filter(userID, typ, limit)
}

func (f *Facts) filter(userID string, typ models.FactType, limit int64) ([]models.Fact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []models.Fact
	for _, i := range newestFirst(len(f.Items), func(i int) time.Time { return f.Items[i].Timestamp }) {
		x := f.Items[i]
		if x.UserID == userID && (typ == "" || x.Type == typ) {
			out = append(out, x)
		}
	}
	return out[:capN(len(out), limit)], nil
}

type Semantic struct {
	mu    sync.Mutex
	Items []models.SemanticMemoryEntry
	Err   error
}

func NewSemantic() *Semantic { return &Semantic{} }

func (s *Semantic) Insert(ctx context.Context, e *models.SemanticMemoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	e.ID = primitive.NewObjectID()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.Items = append(s.Items, *e)
	return nil
}

func (s *Semantic) Latest(ctx context.Context, userID string, limit int64) ([]models.SemanticMemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.SemanticMemoryEntry
	for _, i := range newestFirst(len(s.Items), func(i int) time.Time { return s.Items[i].Timestamp }) {
		if s.Items[i].UserID == userID {
			out = append(out, s.Items[i])
		}
	}
	return out[:capN(len(out), limit)], nil
}

type Preferences struct {
	mu   sync.Mutex
	Docs map[string]*models.PreferenceDocument
	Err  error
}

func NewPreferences() *Preferences {
	return &Preferences{Docs: map[string]*models.PreferenceDocument{}}
}

func (p *Preferences) Get(ctx context.Context, userID string) (*models.PreferenceDocument, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	d, ok := p.Docs[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *d
	cp.Preferences.Topics = map[string]int{}
	for k, v := range d.Preferences.Topics {
		cp.Preferences.Topics[k] = v
	}
	return &cp, nil
}

func (p *Preferences) doc(userID string) *models.PreferenceDocument {
	d, ok := p.Docs[userID]
	if !ok {
		d = &models.PreferenceDocument{UserID: userID}
		p.Docs[userID] = d
	}
	d.UpdatedAt = time.Now().UTC()
	return d
}

func (p *Preferences) Upsert(ctx context.Context, userID string, in models.Preferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	d := p.doc(userID)
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&d.Preferences.Tone, in.Tone)
	set(&d.Preferences.Formality, in.Formality)
	set(&d.Preferences.Language, in.Language)
	set(&d.Preferences.Pronouns, in.Pronouns)
	set(&d.Preferences.Nickname, in.Nickname)
	return nil
}

func (p *Preferences) IncrementTopic(ctx context.Context, userID, topic string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	d := p.doc(userID)
	if d.Preferences.Topics == nil {
		d.Preferences.Topics = map[string]int{}
	}
	d.Preferences.Topics[topic]++
	return nil
}

type Reminders struct {
	mu    sync.Mutex
	Items []models.ReminderRecord
	Err   error
}

func NewReminders() *Reminders { return &Reminders{} }

func (r *Reminders) Insert(ctx context.Context, rec *models.ReminderRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	rec.ID = primitive.NewObjectID()
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	r.Items = append(r.Items, *rec)
	return nil
}

func (r *Reminders) find(id string) (*models.ReminderRecord, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	for i := range r.Items {
		if r.Items[i].ID == oid {
			return &r.Items[i], nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *Reminders) Get(ctx context.Context, id string) (*models.ReminderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	rec, err := r.find(id)
	if err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

func (r *Reminders) SetScheduled(ctx context.Context, id, jobID string, status models.ReminderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	rec, err := r.find(id)
	if err != nil {
		return nil
	}
	if !rec.IsTriggered {
		rec.JobID, rec.Status = jobID, status
	}
	return nil
}

func (r *Reminders) MarkTriggered(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	rec, err := r.find(id)
	if err != nil {
		return false, nil
	}
	if rec.IsTriggered {
		return false, nil
	}
	at = at.UTC()
	rec.IsTriggered, rec.Status, rec.TriggeredAt = true, models.ReminderTriggered, &at
	return true, nil
}

func (r *Reminders) Overdue(ctx context.Context, now time.Time, limit int64) ([]models.ReminderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []models.ReminderRecord
	for _, x := range r.Items {
		if !x.IsTriggered && !x.ScheduledTime.After(now) {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out[:capN(len(out), limit)], nil
}

func (r *Reminders) Upcoming(ctx context.Context, userID string, limit int64) ([]models.ReminderRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []models.ReminderRecord
	for _, x := range r.Items {
		if x.UserID == userID && !x.IsTriggered {
			out = append(out, x)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out[:capN(len(out), limit)], nil
}

func (r *Reminders) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	for i, x := range r.Items {
		if x.ID == oid && x.UserID == userID {
			r.Items = append(r.Items[:i], r.Items[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

type Events struct {
	mu    sync.Mutex
	Items []models.Event
	Err   error
}

func NewEvents() *Events { return &Events{} }

func (e *Events) Insert(ctx context.Context, x *models.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	x.ID = primitive.NewObjectID()
	e.Items = append(e.Items, *x)
	return nil
}

func (e *Events) Recent(ctx context.Context, userID string, limit int64) ([]models.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	var out []models.Event
	for _, i := range newestFirst(len(e.Items), func(i int) time.Time { return e.Items[i].Created }) {
		if e.Items[i].UserID == userID {
			out = append(out, e.Items[i])
		}
	}
	return out[:capN(len(out), limit)], nil
}

type Expenses struct {
	mu    sync.Mutex
	Items []models.Expense
	Err   error
}

func NewExpenses() *Expenses { return &Expenses{} }

func (e *Expenses) Insert(ctx context.Context, x *models.Expense) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	x.ID = primitive.NewObjectID()
	e.Items = append(e.Items, *x)
	return nil
}

func (e *Expenses) Recent(ctx context.Context, userID string, limit int64) ([]models.Expense, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	var out []models.Expense
	for _, i := range newestFirst(len(e.Items), func(i int) time.Time { return e.Items[i].Created }) {
		if e.Items[i].UserID == userID {
			out = append(out, e.Items[i])
		}
	}
	return out[:capN(len(out), limit)], nil
}

func (e *Expenses) Summary(ctx context.Context, userID string) ([]models.ExpenseSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	by := map[string]*models.ExpenseSummary{}
	var order []string
	for _, x := range e.Items {
		if x.UserID != userID {
			continue
		}
		s, ok := by[x.Category]
		if !ok {
			s = &models.ExpenseSummary{Category: x.Category}
			by[x.Category] = s
			order = append(order, x.Category)
		}
		s.Total += x.Amount
		s.Count++
	}
	out := make([]models.ExpenseSummary, 0, len(order))
	for _, c := range order {
		out = append(out, *by[c])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

type WhatsApp struct {
	mu    sync.Mutex
	Items []models.WhatsAppTask
	Err   error
}

func NewWhatsApp() *WhatsApp { return &WhatsApp{} }

func (w *WhatsApp) Insert(ctx context.Context, t *models.WhatsAppTask) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	t.ID = primitive.NewObjectID()
	w.Items = append(w.Items, *t)
	return nil
}

func (w *WhatsApp) SetStatus(ctx context.Context, id, status, errMsg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	for i := range w.Items {
		if w.Items[i].ID == oid {
			w.Items[i].Status, w.Items[i].Error = status, errMsg
			return nil
		}
	}
	return utils.ErrNotFound
}

func (w *WhatsApp) Recent(ctx context.Context, userID string, limit int64) ([]models.WhatsAppTask, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return nil, w.Err
	}
	var out []models.WhatsAppTask
	for _, i := range newestFirst(len(w.Items), func(i int) time.Time { return w.Items[i].Created }) {
		if w.Items[i].UserID == userID {
			out = append(out, w.Items[i])
		}
	}
	return out[:capN(len(out), limit)], nil
}

// Status returns the current status of task id, or "" when unknown.
func (w *WhatsApp) Status(id primitive.ObjectID) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.Items {
		if t.ID == id {
			return t.Status
		}
	}
	return ""
}

type Music struct {
	mu    sync.Mutex
	Items []models.MusicHistory
	Err   error
}

func NewMusic() *Music { return &Music{} }

func (m *Music) Insert(ctx context.Context, x *models.MusicHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	x.ID = primitive.NewObjectID()
	m.Items = append(m.Items, *x)
	return nil
}

func (m *Music) Recent(ctx context.Context, userID string, limit int64) ([]models.MusicHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.MusicHistory
	for _, i := range newestFirst(len(m.Items), func(i int) time.Time { return m.Items[i].PlayedAt }) {
		if m.Items[i].UserID == userID {
			out = append(out, m.Items[i])
		}
	}
	return out[:capN(len(out), limit)], nil
}

type PersonalizationLogs struct {
	mu    sync.Mutex
	Items []models.PersonalizationLog
	Err   error
}

func NewPersonalizationLogs() *PersonalizationLogs { return &PersonalizationLogs{} }

func (p *PersonalizationLogs) Insert(ctx context.Context, l *models.PersonalizationLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	l.ID = primitive.NewObjectID()
	p.Items = append(p.Items, *l)
	return nil
}

func (p *PersonalizationLogs) Recent(ctx context.Context, userID string, limit int64) ([]models.PersonalizationLog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	var out []models.PersonalizationLog
	for _, i := range newestFirst(len(p.Items), func(i int) time.Time { return p.Items[i].Timestamp }) {
		if p.Items[i].UserID == userID {
			out = append(out, p.Items[i])
		}
	}
	return out[:capN(len(out), limit)], nil
}

type Users struct {
	mu    sync.Mutex
	Items map[string]*models.User
	Err   error
}

func NewUsers() *Users { return &Users{Items: map[string]*models.User{}} }

func (u *Users) Touch(ctx context.Context, userID string, at time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	x, ok := u.Items[userID]
	if !ok {
		x = &models.User{ID: primitive.NewObjectID(), UserID: userID, FirstSeen: at.UTC()}
		u.Items[userID] = x
	}
	x.LastSeen = at.UTC()
	x.MessageCount++
	return nil
}

func (u *Users) Get(ctx context.Context, userID string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	x, ok := u.Items[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

type VoiceClips struct {
	mu    sync.Mutex
	Items []models.VoiceClip
	Err   error
}

func NewVoiceClips() *VoiceClips { return &VoiceClips{} }

func (v *VoiceClips) Insert(ctx context.Context, c *models.VoiceClip) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.Err != nil {
		return v.Err
	}
	c.ID = primitive.NewObjectID()
	v.Items = append(v.Items, *c)
	return nil
}

func (v *VoiceClips) UpdateResult(ctx context.Context, id, transcript string, confidence float64, status, response string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.Err != nil {
		return v.Err
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	for i := range v.Items {
		if v.Items[i].ID == oid {
			v.Items[i].Transcript = transcript
			v.Items[i].Confidence = confidence
			v.Items[i].Status = status
			v.Items[i].Response = response
			return nil
		}
	}
	return utils.ErrNotFound
}

func (v *VoiceClips) ListByUser(ctx context.Context, userID string, limit int64) ([]models.VoiceClip, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.Err != nil {
		return nil, v.Err
	}
	var out []models.VoiceClip
	for _, i := range newestFirst(len(v.Items), func(i int) time.Time { return v.Items[i].Timestamp }) {
		if v.Items[i].UserID == userID {
			out = append(out, v.Items[i])
		}
	}
	return out[:capN(len(out), limit)], nil
}
