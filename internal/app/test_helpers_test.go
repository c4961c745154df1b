package app

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/example/feecc/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockUnitRepository implements secondary.UnitRepository for testing.
// Reads return copies so services cannot mutate stored rows in place.
type mockUnitRepository struct {
	units        map[string]*secondary.UnitRecord // uuid -> unit
	getErr       error
	setStatusErr error
	casLoses     bool
	setCalls     int
}

func newMockUnitRepository() *mockUnitRepository {
	return &mockUnitRepository{units: make(map[string]*secondary.UnitRecord)}
}

func (m *mockUnitRepository) put(u *secondary.UnitRecord) {
	c := *u
	m.units[u.UUID] = &c
}

func (m *mockUnitRepository) Create(ctx context.Context, unit *secondary.UnitRecord) error {
	m.put(unit)
	return nil
}

func (m *mockUnitRepository) GetByUUID(ctx context.Context, uuid string) (*secondary.UnitRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.units[uuid]; ok {
		c := *u
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockUnitRepository) GetByInternalID(ctx context.Context, internalID string) (*secondary.UnitRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.units {
		if u.InternalID == internalID {
			c := *u
			return &c, nil
		}
	}
	return nil, secondary.ErrNotFound
}

func (m *mockUnitRepository) matching(filters secondary.UnitFilters) []*secondary.UnitRecord {
	var out []*secondary.UnitRecord
	for _, u := range m.units {
		if filters.Status != "" && u.Status != filters.Status {
			continue
		}
		if filters.InternalID != "" && u.InternalID != filters.InternalID {
			continue
		}
		if len(filters.Types) > 0 && !slices.Contains(filters.Types, u.Type) {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if filters.NewestFirst {
			return out[i].CreationTime.After(out[j].CreationTime)
		}
		return out[i].CreationTime.Before(out[j].CreationTime)
	})
	return out
}

func (m *mockUnitRepository) List(ctx context.Context, filters secondary.UnitFilters) ([]*secondary.UnitRecord, error) {
	out := m.matching(filters)
	if filters.Offset >= len(out) {
		return nil, nil
	}
	out = out[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (m *mockUnitRepository) Count(ctx context.Context, filters secondary.UnitFilters) (int, error) {
	return len(m.matching(filters)), nil
}

func (m *mockUnitRepository) Update(ctx context.Context, unit *secondary.UnitRecord) error {
	stored, ok := m.units[unit.UUID]
	if !ok {
		return secondary.ErrNotFound
	}
	c := *unit
	c.Status = stored.Status
	m.units[unit.UUID] = &c
	return nil
}

func (m *mockUnitRepository) SetStatus(ctx context.Context, uuid, status string) error {
	m.setCalls++
	if m.setStatusErr != nil {
		return m.setStatusErr
	}
	u, ok := m.units[uuid]
	if !ok {
		return secondary.ErrNotFound
	}
	u.Status = status
	return nil
}

func (m *mockUnitRepository) CompareAndSetStatus(ctx context.Context, uuid, expected, next string) (bool, error) {
	m.setCalls++
	if m.setStatusErr != nil {
		return false, m.setStatusErr
	}
	u, ok := m.units[uuid]
	if !ok {
		return false, secondary.ErrNotFound
	}
	if m.casLoses || u.Status != expected {
		return false, nil
	}
	u.Status = next
	return true, nil
}

func (m *mockUnitRepository) Delete(ctx context.Context, uuid string) error {
	if _, ok := m.units[uuid]; !ok {
		return secondary.ErrNotFound
	}
	delete(m.units, uuid)
	return nil
}

func (m *mockUnitRepository) ListTypes(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, u := range m.units {
		if u.Type != "" && !seen[u.Type] {
			seen[u.Type] = true
			out = append(out, u.Type)
		}
	}
	sort.Strings(out)
	return out, nil
}

// mockStageRepository implements secondary.StageRepository for testing.
type mockStageRepository struct {
	stages    map[string]*secondary.StageRecord
	order     []string
	createErr error
}

func newMockStageRepository() *mockStageRepository {
	return &mockStageRepository{stages: make(map[string]*secondary.StageRecord)}
}

func (m *mockStageRepository) Create(ctx context.Context, stage *secondary.StageRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	c := *stage
	m.stages[stage.ID] = &c
	m.order = append(m.order, stage.ID)
	return nil
}

func (m *mockStageRepository) GetByID(ctx context.Context, id string) (*secondary.StageRecord, error) {
	if s, ok := m.stages[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockStageRepository) all(unitUUID string) []*secondary.StageRecord {
	var out []*secondary.StageRecord
	for _, id := range m.order {
		s, ok := m.stages[id]
		if !ok || (unitUUID != "" && s.ParentUnitUUID != unitUUID) {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreationTime.Before(out[j].CreationTime)
	})
	return out
}

func (m *mockStageRepository) List(ctx context.Context, filters secondary.StageFilters) ([]*secondary.StageRecord, error) {
	out := m.all(filters.ParentUnitUUID)
	if filters.Offset >= len(out) {
		return nil, nil
	}
	out = out[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (m *mockStageRepository) Count(ctx context.Context, filters secondary.StageFilters) (int, error) {
	return len(m.all(filters.ParentUnitUUID)), nil
}

func (m *mockStageRepository) ListByUnit(ctx context.Context, unitUUID string) ([]*secondary.StageRecord, error) {
	return m.all(unitUUID), nil
}

func (m *mockStageRepository) CountByUnit(ctx context.Context, unitUUID string) (int, error) {
	return len(m.all(unitUUID)), nil
}

func (m *mockStageRepository) CountIncompleteByUnit(ctx context.Context, unitUUID string) (int, error) {
	n := 0
	for _, s := range m.all(unitUUID) {
		if !s.Completed && s.AdditionalInfo["canceled"] != true {
			n++
		}
	}
	return n, nil
}

func (m *mockStageRepository) Update(ctx context.Context, stage *secondary.StageRecord) error {
	if _, ok := m.stages[stage.ID]; !ok {
		return secondary.ErrNotFound
	}
	c := *stage
	m.stages[stage.ID] = &c
	return nil
}

func (m *mockStageRepository) SetAdditionalInfo(ctx context.Context, id string, info map[string]any) error {
	s, ok := m.stages[id]
	if !ok {
		return secondary.ErrNotFound
	}
	s.AdditionalInfo = info
	return nil
}

func (m *mockStageRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.stages[id]; !ok {
		return secondary.ErrNotFound
	}
	delete(m.stages, id)
	return nil
}

func (m *mockStageRepository) DeleteByUnit(ctx context.Context, unitUUID string) (int, error) {
	n := 0
	for id, s := range m.stages {
		if s.ParentUnitUUID == unitUUID {
			delete(m.stages, id)
			n++
		}
	}
	return n, nil
}

// mockSchemaRepository implements secondary.SchemaRepository for testing.
type mockSchemaRepository struct {
	schemas map[string]*secondary.SchemaRecord
}

func newMockSchemaRepository() *mockSchemaRepository {
	return &mockSchemaRepository{schemas: make(map[string]*secondary.SchemaRecord)}
}

func (m *mockSchemaRepository) Create(ctx context.Context, schema *secondary.SchemaRecord) error {
	c := *schema
	m.schemas[schema.SchemaID] = &c
	return nil
}

func (m *mockSchemaRepository) GetByID(ctx context.Context, schemaID string) (*secondary.SchemaRecord, error) {
	if s, ok := m.schemas[schemaID]; ok {
		c := *s
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockSchemaRepository) List(ctx context.Context) ([]*secondary.SchemaRecord, error) {
	var out []*secondary.SchemaRecord
	for _, s := range m.schemas {
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaID < out[j].SchemaID })
	return out, nil
}

func (m *mockSchemaRepository) Update(ctx context.Context, schema *secondary.SchemaRecord) error {
	if _, ok := m.schemas[schema.SchemaID]; !ok {
		return secondary.ErrNotFound
	}
	c := *schema
	m.schemas[schema.SchemaID] = &c
	return nil
}

func (m *mockSchemaRepository) Delete(ctx context.Context, schemaID string) error {
	if _, ok := m.schemas[schemaID]; !ok {
		return secondary.ErrNotFound
	}
	delete(m.schemas, schemaID)
	return nil
}

// mockEmployeeRepository implements secondary.EmployeeRepository for testing.
type mockEmployeeRepository struct {
	employees map[string]*secondary.EmployeeRecord
	listCalls int
}

func newMockEmployeeRepository() *mockEmployeeRepository {
	return &mockEmployeeRepository{employees: make(map[string]*secondary.EmployeeRecord)}
}

func (m *mockEmployeeRepository) Create(ctx context.Context, employee *secondary.EmployeeRecord) error {
	c := *employee
	m.employees[employee.RFIDCardID] = &c
	return nil
}

func (m *mockEmployeeRepository) GetByRFID(ctx context.Context, rfidCardID string) (*secondary.EmployeeRecord, error) {
	if e, ok := m.employees[rfidCardID]; ok {
		c := *e
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockEmployeeRepository) List(ctx context.Context) ([]*secondary.EmployeeRecord, error) {
	m.listCalls++
	var out []*secondary.EmployeeRecord
	for _, e := range m.employees {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

func (m *mockEmployeeRepository) Update(ctx context.Context, employee *secondary.EmployeeRecord) error {
	if _, ok := m.employees[employee.RFIDCardID]; !ok {
		return secondary.ErrNotFound
	}
	c := *employee
	m.employees[employee.RFIDCardID] = &c
	return nil
}

func (m *mockEmployeeRepository) Delete(ctx context.Context, rfidCardID string) error {
	if _, ok := m.employees[rfidCardID]; !ok {
		return secondary.ErrNotFound
	}
	delete(m.employees, rfidCardID)
	return nil
}

// mockEmployeeCache implements secondary.EmployeeCache for testing.
type mockEmployeeCache struct {
	entries map[string]*secondary.EmployeeRecord
}

func newMockEmployeeCache() *mockEmployeeCache {
	return &mockEmployeeCache{entries: make(map[string]*secondary.EmployeeRecord)}
}

func (m *mockEmployeeCache) Get(namespace, hash string) (*secondary.EmployeeRecord, bool) {
	e, ok := m.entries[namespace+"/"+hash]
	return e, ok
}

func (m *mockEmployeeCache) Put(namespace, hash string, employee *secondary.EmployeeRecord) {
	m.entries[namespace+"/"+hash] = employee
}

func (m *mockEmployeeCache) Remove(namespace, hash string) {
	delete(m.entries, namespace+"/"+hash)
}

// mockTemplateRepository implements secondary.ProtocolTemplateRepository for testing.
type mockTemplateRepository struct {
	templates map[string]*secondary.ProtocolTemplateRecord // protocol schema id -> template
}

func newMockTemplateRepository() *mockTemplateRepository {
	return &mockTemplateRepository{templates: make(map[string]*secondary.ProtocolTemplateRecord)}
}

func (m *mockTemplateRepository) Save(ctx context.Context, template *secondary.ProtocolTemplateRecord) error {
	for id, t := range m.templates {
		if t.AssociatedWithSchemaID == template.AssociatedWithSchemaID && id != template.ProtocolSchemaID {
			return fmt.Errorf("UNIQUE constraint failed: associated_with_schema_id")
		}
	}
	c := *template
	m.templates[template.ProtocolSchemaID] = &c
	return nil
}

func (m *mockTemplateRepository) GetBySchemaID(ctx context.Context, associatedWithSchemaID string) (*secondary.ProtocolTemplateRecord, error) {
	for _, t := range m.templates {
		if t.AssociatedWithSchemaID == associatedWithSchemaID {
			c := *t
			return &c, nil
		}
	}
	return nil, secondary.ErrNotFound
}

func (m *mockTemplateRepository) List(ctx context.Context) ([]*secondary.ProtocolTemplateRecord, error) {
	var out []*secondary.ProtocolTemplateRecord
	for _, t := range m.templates {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

// mockProtocolRepository implements secondary.ProtocolRepository for testing.
type mockProtocolRepository struct {
	protocols map[string]*secondary.ProtocolRecord // unit internal id -> protocol
	casLoses  bool
}

func newMockProtocolRepository() *mockProtocolRepository {
	return &mockProtocolRepository{protocols: make(map[string]*secondary.ProtocolRecord)}
}

func (m *mockProtocolRepository) Create(ctx context.Context, protocol *secondary.ProtocolRecord) error {
	if _, ok := m.protocols[protocol.AssociatedUnitID]; ok {
		return fmt.Errorf("UNIQUE constraint failed: associated_unit_id")
	}
	c := *protocol
	m.protocols[protocol.AssociatedUnitID] = &c
	return nil
}

func (m *mockProtocolRepository) GetByUnitID(ctx context.Context, unitInternalID string) (*secondary.ProtocolRecord, error) {
	if p, ok := m.protocols[unitInternalID]; ok {
		c := *p
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockProtocolRepository) List(ctx context.Context, filters secondary.ProtocolFilters) ([]*secondary.ProtocolRecord, error) {
	var out []*secondary.ProtocolRecord
	for _, p := range m.protocols {
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (m *mockProtocolRepository) byID(protocolID string) *secondary.ProtocolRecord {
	for _, p := range m.protocols {
		if p.ProtocolID == protocolID {
			return p
		}
	}
	return nil
}

func (m *mockProtocolRepository) UpdateRows(ctx context.Context, protocolID string, rows []secondary.ProtocolRowRecord, expected, next string) (bool, error) {
	p := m.byID(protocolID)
	if p == nil {
		return false, secondary.ErrNotFound
	}
	if m.casLoses || p.Status != expected {
		return false, nil
	}
	p.Rows = rows
	p.Status = next
	return true, nil
}

func (m *mockProtocolRepository) SetStatus(ctx context.Context, protocolID, status string) error {
	p := m.byID(protocolID)
	if p == nil {
		return secondary.ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockProtocolRepository) DeleteByUnitID(ctx context.Context, unitInternalID string) error {
	if _, ok := m.protocols[unitInternalID]; !ok {
		return secondary.ErrNotFound
	}
	delete(m.protocols, unitInternalID)
	return nil
}

// mockUserRepository implements secondary.UserRepository for testing.
type mockUserRepository struct {
	users map[string]*secondary.UserRecord
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*secondary.UserRecord)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *secondary.UserRecord) error {
	c := *user
	m.users[user.Username] = &c
	return nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*secondary.UserRecord, error) {
	if u, ok := m.users[username]; ok {
		c := *u
		return &c, nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockUserRepository) Delete(ctx context.Context, username string) error {
	if _, ok := m.users[username]; !ok {
		return secondary.ErrNotFound
	}
	delete(m.users, username)
	return nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	return len(m.users), nil
}

// mockTokenRepository implements secondary.TokenRepository for testing.
type mockTokenRepository struct {
	tokens map[string]*secondary.TokenRecord
}

func newMockTokenRepository() *mockTokenRepository {
	return &mockTokenRepository{tokens: make(map[string]*secondary.TokenRecord)}
}

func (m *mockTokenRepository) Create(ctx context.Context, token *secondary.TokenRecord) error {
	c := *token
	m.tokens[token.TokenHash] = &c
	return nil
}

func (m *mockTokenRepository) GetByHash(ctx context.Context, hash string, now time.Time) (*secondary.TokenRecord, error) {
	t, ok := m.tokens[hash]
	if !ok || !t.ExpiresAt.After(now) {
		return nil, secondary.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (m *mockTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	n := 0
	for hash, t := range m.tokens {
		if !t.ExpiresAt.After(now) {
			delete(m.tokens, hash)
			n++
		}
	}
	return n, nil
}

// mockStatusLog implements both secondary.LogWriter and
// secondary.StatusLogRepository, so history written by a service can be read back.
type mockStatusLog struct {
	entries []*secondary.StatusLogRecord
}

func (m *mockStatusLog) LogStatusChange(ctx context.Context, unitUUID, oldStatus, newStatus string) error {
	return m.Create(ctx, &secondary.StatusLogRecord{UnitUUID: unitUUID, OldStatus: oldStatus, NewStatus: newStatus})
}

func (m *mockStatusLog) Create(ctx context.Context, entry *secondary.StatusLogRecord) error {
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockStatusLog) ListByUnit(ctx context.Context, unitUUID string) ([]*secondary.StatusLogRecord, error) {
	var out []*secondary.StatusLogRecord
	for _, e := range m.entries {
		if e.UnitUUID == unitUUID {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockTransactor implements secondary.Transactor by running fn directly.
type mockTransactor struct {
	calls int
}

func (m *mockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// mockRecorder implements secondary.TransitionRecorder for testing.
type mockRecorder struct {
	units     []string
	protocols []string
	reworked  []int
}

func (m *mockRecorder) UnitTransition(from, to string) {
	m.units = append(m.units, from+"->"+to)
}

func (m *mockRecorder) ProtocolTransition(from, to string) {
	m.protocols = append(m.protocols, from+"->"+to)
}

func (m *mockRecorder) StagesReworked(n int) {
	m.reworked = append(m.reworked, n)
}

// ============================================================================
// Test Fixture
// ============================================================================

// testEnv wires every service against in-memory mocks.
type testEnv struct {
	units     *mockUnitRepository
	stages    *mockStageRepository
	schemas   *mockSchemaRepository
	employees *mockEmployeeRepository
	cache     *mockEmployeeCache
	templates *mockTemplateRepository
	protocols *mockProtocolRepository
	history   *mockStatusLog
	tx        *mockTransactor
	recorder  *mockRecorder

	unitService     *UnitServiceImpl
	stageService    *StageServiceImpl
	revisionService *RevisionServiceImpl
	protocolService *ProtocolServiceImpl
	employeeService *EmployeeServiceImpl
	schemaService   *SchemaServiceImpl
}

var testBaseTime = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func newTestEnv() *testEnv {
	env := &testEnv{
		units:     newMockUnitRepository(),
		stages:    newMockStageRepository(),
		schemas:   newMockSchemaRepository(),
		employees: newMockEmployeeRepository(),
		cache:     newMockEmployeeCache(),
		templates: newMockTemplateRepository(),
		protocols: newMockProtocolRepository(),
		history:   &mockStatusLog{},
		tx:        &mockTransactor{},
		recorder:  &mockRecorder{},
	}

	env.employeeService = NewEmployeeService(env.employees, env.cache, nil)
	env.stageService = NewStageService(env.stages, env.units, env.schemas, env.employeeService, nil)
	env.unitService = NewUnitService(UnitServiceDeps{
		Units:      env.units,
		Stages:     env.stages,
		Schemas:    env.schemas,
		History:    env.history,
		LogWriter:  env.history,
		Ledger:     env.stageService,
		Transactor: env.tx,
		Recorder:   env.recorder,
	}, nil)
	env.revisionService = NewRevisionService(env.units, env.stages, env.unitService, env.tx, env.recorder, nil)
	env.protocolService = NewProtocolService(ProtocolServiceDeps{
		Protocols:  env.protocols,
		Templates:  env.templates,
		Units:      env.units,
		Schemas:    env.schemas,
		Employees:  env.employees,
		Registry:   env.unitService,
		Transactor: env.tx,
		Recorder:   env.recorder,
	}, nil)
	env.schemaService = NewSchemaService(env.schemas, nil)

	clock := func() time.Time { return testBaseTime }
	env.unitService.now = clock
	env.stageService.now = clock
	env.revisionService.now = clock
	env.protocolService.now = clock
	return env
}

// addUnit stores a unit created minutesAfter the base time.
func (e *testEnv) addUnit(uuid, internalID, status string, minutesAfter int) *secondary.UnitRecord {
	u := &secondary.UnitRecord{
		UUID:         uuid,
		InternalID:   internalID,
		Model:        "Model " + internalID,
		Type:         "Sensor",
		CreationTime: testBaseTime.Add(time.Duration(minutesAfter) * time.Minute),
		Status:       status,
	}
	e.units.put(u)
	return u
}

// addStage stores a stage recorded minutesAfter the base time.
func (e *testEnv) addStage(id, unitUUID, name string, completed bool, minutesAfter int) *secondary.StageRecord {
	s := &secondary.StageRecord{
		ID:             id,
		ParentUnitUUID: unitUUID,
		SchemaStageID:  "schema-" + name,
		Name:           name,
		Completed:      completed,
		CreationTime:   testBaseTime.Add(time.Duration(minutesAfter) * time.Minute),
	}
	_ = e.stages.Create(context.Background(), s)
	return s
}

// sequentialIDs replaces newID with a deterministic counter for the
// duration of a test.
func sequentialIDs(t interface{ Cleanup(func()) }) {
	prev := newID
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("id%03d", n)
	}
	t.Cleanup(func() { newID = prev })
}
