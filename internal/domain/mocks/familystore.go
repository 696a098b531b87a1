package mocks

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

type memData struct {
	people    map[string]entities.Person
	rels      []entities.Relationship
	events    []entities.Event
	media     map[string]entities.Media
	links     []entities.MediaLink
	sources   map[string]entities.Source
	citations []entities.Citation
	audit     []entities.AuditEntry
}

func newMemData() *memData {
	return &memData{
		people:  make(map[string]entities.Person),
		media:   make(map[string]entities.Media),
		sources: make(map[string]entities.Source),
	}
}

func (d *memData) clone() *memData {
	return &memData{
		people:    maps.Clone(d.people),
		rels:      slices.Clone(d.rels),
		events:    slices.Clone(d.events),
		media:     maps.Clone(d.media),
		links:     slices.Clone(d.links),
		sources:   maps.Clone(d.sources),
		citations: slices.Clone(d.citations),
		audit:     slices.Clone(d.audit),
	}
}

type failure struct {
	call int
	err  error
}

// FamilyStore is an in-memory ports.FamilyStore. Transactions work on a copy
// of the data and commit by swapping it in, so a failed transaction leaves
// nothing behind.
type FamilyStore struct {
	memReader

	mu       sync.RWMutex
	writeMu  sync.Mutex
	data     *memData
	failures map[string]failure
	calls    map[string]int
	readErr  error
	Commits  int
}

// NewFamilyStore creates an empty store.
func NewFamilyStore() *FamilyStore {
	s := &FamilyStore{
		data:     newMemData(),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
	}
	s.memReader = memReader{load: s.current, check: s.checkRead}
	return s
}

// FailAt makes the call-th invocation (1-based) of the write op fail with err.
// A call of 0 fails every invocation.
func (s *FamilyStore) FailAt(op string, call int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = failure{call: call, err: err}
	s.calls[op] = 0
}

// FailReads makes every read return err. Pass nil to clear.
func (s *FamilyStore) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *FamilyStore) current() *memData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *FamilyStore) checkRead(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readErr != nil {
		return &ports.StoreError{Op: op, Err: s.readErr}
	}
	return nil
}

func (s *FamilyStore) checkWrite(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	s.calls[op]++
	if f.call == 0 || s.calls[op] == f.call {
		return &ports.StoreError{Op: op, Err: f.err}
	}
	return nil
}

// EnsureSchema is a no-op.
func (s *FamilyStore) EnsureSchema(_ context.Context) error { return nil }

// Close is a no-op.
func (s *FamilyStore) Close() error { return nil }

// WithTx runs fn against a private copy and publishes it on success.
func (s *FamilyStore) WithTx(ctx context.Context, fn func(tx ports.FamilyTx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{store: s, data: s.current().clone()}
	tx.memReader = memReader{load: func() *memData { return tx.data }, check: s.checkRead}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx.data
	s.Commits++
	s.mu.Unlock()
	return nil
}

// Seed writes records directly, bypassing services. Useful for building
// states that services would refuse to create, such as one-sided edges.
func (s *FamilyStore) Seed(people []entities.Person, rels []entities.Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.data.clone()
	for _, p := range people {
		d.people[p.ID] = p
	}
	d.rels = append(d.rels, rels...)
	s.data = d
}

type memReader struct {
	load  func() *memData
	check func(op string) error
}

func (r memReader) FindPerson(_ context.Context, id string) (*entities.Person, error) {
	if err := r.check("find person"); err != nil {
		return nil, err
	}
	p, ok := r.load().people[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memReader) ListPeople(_ context.Context, filter ports.PersonFilter) ([]entities.Person, error) {
	if err := r.check("list people"); err != nil {
		return nil, err
	}
	people := make([]entities.Person, 0)
	for _, p := range r.load().people {
		if p.MatchesName(filter.Search) {
			people = append(people, p)
		}
	}
	sort.Slice(people, func(i, j int) bool {
		li, lj := entities.FoldName(people[i].LastName), entities.FoldName(people[j].LastName)
		if li != lj {
			return li < lj
		}
		fi, fj := entities.FoldName(people[i].FirstName), entities.FoldName(people[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return people[i].ID < people[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(people) {
			return []entities.Person{}, nil
		}
		people = people[filter.Offset:]
	}
	if filter.Limit > 0 && len(people) > filter.Limit {
		people = people[:filter.Limit]
	}
	return people, nil
}

func (r memReader) CountPeople(_ context.Context) (int, error) {
	if err := r.check("count people"); err != nil {
		return 0, err
	}
	return len(r.load().people), nil
}

func (r memReader) FindRelationship(_ context.Context, id string) (*entities.Relationship, error) {
	if err := r.check("find relationship"); err != nil {
		return nil, err
	}
	for _, rel := range r.load().rels {
		if rel.ID == id {
			return &rel, nil
		}
	}
	return nil, nil
}

func (r memReader) FindRelationshipsByPerson(_ context.Context, personID string) ([]entities.Relationship, error) {
	if err := r.check("find relationships"); err != nil {
		return nil, err
	}
	var out []entities.Relationship
	for _, rel := range r.load().rels {
		if rel.PersonID == personID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r memReader) FindRelationshipsBetween(_ context.Context, personID, relatedID string) ([]entities.Relationship, error) {
	if err := r.check("find relationships"); err != nil {
		return nil, err
	}
	var out []entities.Relationship
	for _, rel := range r.load().rels {
		if rel.PersonID == personID && rel.RelatedPersonID == relatedID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r memReader) ListRelationships(_ context.Context) ([]entities.Relationship, error) {
	if err := r.check("list relationships"); err != nil {
		return nil, err
	}
	return slices.Clone(r.load().rels), nil
}

func (r memReader) CountRelationships(_ context.Context) (int, error) {
	if err := r.check("count relationships"); err != nil {
		return 0, err
	}
	return len(r.load().rels), nil
}

func (r memReader) FindEvent(_ context.Context, id string) (*entities.Event, error) {
	if err := r.check("find event"); err != nil {
		return nil, err
	}
	for _, e := range r.load().events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (r memReader) FindEventsByPerson(_ context.Context, personID string) ([]entities.Event, error) {
	if err := r.check("find events"); err != nil {
		return nil, err
	}
	var out []entities.Event
	for _, e := range r.load().events {
		if e.PersonID == personID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memReader) FindMedia(_ context.Context, id string) (*entities.Media, error) {
	if err := r.check("find media"); err != nil {
		return nil, err
	}
	m, ok := r.load().media[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r memReader) FindMediaBySubject(_ context.Context, kind entities.SubjectKind, subjectID string) ([]entities.Media, error) {
	if err := r.check("find media"); err != nil {
		return nil, err
	}
	d := r.load()
	var out []entities.Media
	for _, l := range d.links {
		if l.SubjectKind == kind && l.SubjectID == subjectID {
			if m, ok := d.media[l.MediaID]; ok {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (r memReader) FindMediaLinks(_ context.Context, mediaID string) ([]entities.MediaLink, error) {
	if err := r.check("find media links"); err != nil {
		return nil, err
	}
	var out []entities.MediaLink
	for _, l := range r.load().links {
		if l.MediaID == mediaID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r memReader) FindSource(_ context.Context, id string) (*entities.Source, error) {
	if err := r.check("find source"); err != nil {
		return nil, err
	}
	src, ok := r.load().sources[id]
	if !ok {
		return nil, nil
	}
	return &src, nil
}

func (r memReader) ListSources(_ context.Context) ([]entities.Source, error) {
	if err := r.check("list sources"); err != nil {
		return nil, err
	}
	out := slices.Collect(maps.Values(r.load().sources))
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memReader) FindCitationsBySubject(_ context.Context, kind entities.SubjectKind, subjectID string) ([]entities.Citation, error) {
	if err := r.check("find citations"); err != nil {
		return nil, err
	}
	var out []entities.Citation
	for _, c := range r.load().citations {
		if c.SubjectKind == kind && c.SubjectID == subjectID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memReader) FindCitationsBySource(_ context.Context, sourceID string) ([]entities.Citation, error) {
	if err := r.check("find citations"); err != nil {
		return nil, err
	}
	var out []entities.Citation
	for _, c := range r.load().citations {
		if c.SourceID == sourceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memReader) FindAuditLog(_ context.Context, subjectID string) ([]entities.AuditEntry, error) {
	if err := r.check("find audit log"); err != nil {
		return nil, err
	}
	var out []entities.AuditEntry
	audit := r.load().audit
	for i := len(audit) - 1; i >= 0; i-- {
		if audit[i].SubjectID == subjectID {
			out = append(out, audit[i])
		}
	}
	return out, nil
}

type memTx struct {
	memReader
	store *FamilyStore
	data  *memData
}

func (t *memTx) SavePerson(_ context.Context, person *entities.Person) error {
	if err := t.store.checkWrite("save person"); err != nil {
		return err
	}
	t.data.people[person.ID] = *person
	return nil
}

func (t *memTx) DeletePerson(_ context.Context, id string) error {
	if err := t.store.checkWrite("delete person"); err != nil {
		return err
	}
	delete(t.data.people, id)
	return nil
}

func (t *memTx) SaveRelationship(_ context.Context, rel *entities.Relationship) error {
	if err := t.store.checkWrite("save relationship"); err != nil {
		return err
	}
	for i := range t.data.rels {
		if t.data.rels[i].ID == rel.ID {
			t.data.rels[i] = *rel
			return nil
		}
	}
	t.data.rels = append(t.data.rels, *rel)
	return nil
}

func (t *memTx) DeleteRelationship(_ context.Context, id string) error {
	if err := t.store.checkWrite("delete relationship"); err != nil {
		return err
	}
	t.data.rels = slices.DeleteFunc(t.data.rels, func(r entities.Relationship) bool { return r.ID == id })
	return nil
}

func (t *memTx) DeleteRelationshipsByPerson(_ context.Context, personID string) error {
	if err := t.store.checkWrite("delete relationships"); err != nil {
		return err
	}
	t.data.rels = slices.DeleteFunc(t.data.rels, func(r entities.Relationship) bool {
		return r.PersonID == personID || r.RelatedPersonID == personID
	})
	return nil
}

func (t *memTx) SaveEvent(_ context.Context, event *entities.Event) error {
	if err := t.store.checkWrite("save event"); err != nil {
		return err
	}
	for i := range t.data.events {
		if t.data.events[i].ID == event.ID {
			t.data.events[i] = *event
			return nil
		}
	}
	t.data.events = append(t.data.events, *event)
	return nil
}

func (t *memTx) DeleteEvent(_ context.Context, id string) error {
	if err := t.store.checkWrite("delete event"); err != nil {
		return err
	}
	t.data.events = slices.DeleteFunc(t.data.events, func(e entities.Event) bool { return e.ID == id })
	return nil
}

func (t *memTx) DeleteEventsByPerson(_ context.Context, personID string) error {
	if err := t.store.checkWrite("delete events"); err != nil {
		return err
	}
	t.data.events = slices.DeleteFunc(t.data.events, func(e entities.Event) bool { return e.PersonID == personID })
	return nil
}

func (t *memTx) SaveMedia(_ context.Context, media *entities.Media) error {
	if err := t.store.checkWrite("save media"); err != nil {
		return err
	}
	t.data.media[media.ID] = *media
	return nil
}

func (t *memTx) DeleteMedia(_ context.Context, id string) error {
	if err := t.store.checkWrite("delete media"); err != nil {
		return err
	}
	delete(t.data.media, id)
	return nil
}

func (t *memTx) LinkMedia(_ context.Context, link entities.MediaLink) error {
	if err := t.store.checkWrite("link media"); err != nil {
		return err
	}
	if !slices.Contains(t.data.links, link) {
		t.data.links = append(t.data.links, link)
	}
	return nil
}

func (t *memTx) UnlinkMedia(_ context.Context, link entities.MediaLink) error {
	if err := t.store.checkWrite("unlink media"); err != nil {
		return err
	}
	t.data.links = slices.DeleteFunc(t.data.links, func(l entities.MediaLink) bool { return l == link })
	return nil
}

func (t *memTx) DeleteMediaLinks(_ context.Context, mediaID string) error {
	if err := t.store.checkWrite("delete media links"); err != nil {
		return err
	}
	t.data.links = slices.DeleteFunc(t.data.links, func(l entities.MediaLink) bool { return l.MediaID == mediaID })
	return nil
}

func (t *memTx) DeleteMediaLinksBySubject(_ context.Context, kind entities.SubjectKind, subjectID string) error {
	if err := t.store.checkWrite("delete media links"); err != nil {
		return err
	}
	t.data.links = slices.DeleteFunc(t.data.links, func(l entities.MediaLink) bool {
		return l.SubjectKind == kind && l.SubjectID == subjectID
	})
	return nil
}

func (t *memTx) ClearMediaSource(_ context.Context, sourceID string) error {
	if err := t.store.checkWrite("clear media source"); err != nil {
		return err
	}
	for id, m := range t.data.media {
		if m.SourceID == sourceID {
			m.SourceID = ""
			t.data.media[id] = m
		}
	}
	return nil
}

func (t *memTx) SaveSource(_ context.Context, source *entities.Source) error {
	if err := t.store.checkWrite("save source"); err != nil {
		return err
	}
	t.data.sources[source.ID] = *source
	return nil
}

func (t *memTx) DeleteSource(_ context.Context, id string) error {
	if err := t.store.checkWrite("delete source"); err != nil {
		return err
	}
	delete(t.data.sources, id)
	return nil
}

func (t *memTx) SaveCitation(_ context.Context, citation *entities.Citation) error {
	if err := t.store.checkWrite("save citation"); err != nil {
		return err
	}
	for _, c := range t.data.citations {
		if c.SourceID == citation.SourceID && c.SubjectKind == citation.SubjectKind && c.SubjectID == citation.SubjectID {
			return nil
		}
	}
	t.data.citations = append(t.data.citations, *citation)
	return nil
}

func (t *memTx) DeleteCitation(_ context.Context, citation entities.Citation) error {
	if err := t.store.checkWrite("delete citation"); err != nil {
		return err
	}
	t.data.citations = slices.DeleteFunc(t.data.citations, func(c entities.Citation) bool {
		return c.SourceID == citation.SourceID && c.SubjectKind == citation.SubjectKind && c.SubjectID == citation.SubjectID
	})
	return nil
}

func (t *memTx) DeleteCitationsBySubject(_ context.Context, kind entities.SubjectKind, subjectID string) error {
	if err := t.store.checkWrite("delete citations"); err != nil {
		return err
	}
	t.data.citations = slices.DeleteFunc(t.data.citations, func(c entities.Citation) bool {
		return c.SubjectKind == kind && c.SubjectID == subjectID
	})
	return nil
}

func (t *memTx) DeleteCitationsBySource(_ context.Context, sourceID string) error {
	if err := t.store.checkWrite("delete citations"); err != nil {
		return err
	}
	t.data.citations = slices.DeleteFunc(t.data.citations, func(c entities.Citation) bool { return c.SourceID == sourceID })
	return nil
}

func (t *memTx) LogAction(_ context.Context, action string, subjectID string, details map[string]any) error {
	if err := t.store.checkWrite("log action"); err != nil {
		return err
	}
	t.data.audit = append(t.data.audit, entities.AuditEntry{
		ID:        int64(len(t.data.audit) + 1),
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

var (
	_ ports.FamilyStore = (*FamilyStore)(nil)
	_ ports.FamilyTx    = (*memTx)(nil)
)
