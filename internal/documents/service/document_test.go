package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	documentserrors "jsonbin/internal/documents/errors"
	"jsonbin/internal/documents/events"
	"jsonbin/internal/documents/model"
	"jsonbin/internal/documents/validator"
	"jsonbin/pkg/canonical"
	"jsonbin/pkg/config"
	mongotx "jsonbin/pkg/db/mongo"
	apperrors "jsonbin/pkg/errors"
	"jsonbin/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockDocumentRepository keeps documents in memory. Func fields override the
// default behavior to inject failures.
type mockDocumentRepository struct {
	docs map[string]bson.D

	createFunc      func(ctx context.Context, id string, doc bson.D) error
	deleteFunc      func(ctx context.Context, id string) error
	updateFieldFunc func(ctx context.Context, id string, field string, value any) error

	transactions int
	lastField    string
}

func newMockRepo() *mockDocumentRepository {
	return &mockDocumentRepository{docs: make(map[string]bson.D)}
}

func (m *mockDocumentRepository) Create(ctx context.Context, id string, doc bson.D) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, id, doc)
	}
	m.docs[id] = doc
	return nil
}

func (m *mockDocumentRepository) Get(_ context.Context, id string) (bson.D, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", documentserrors.ErrNotFound, id)
	}
	return doc, nil
}

func (m *mockDocumentRepository) Set(_ context.Context, id string, doc bson.D) error {
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", documentserrors.ErrNotFound, id)
	}
	m.docs[id] = doc
	return nil
}

func (m *mockDocumentRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	delete(m.docs, id)
	return nil
}

func (m *mockDocumentRepository) UpdateField(ctx context.Context, id string, field string, value any) error {
	if m.updateFieldFunc != nil {
		return m.updateFieldFunc(ctx, id, field, value)
	}
	doc, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", documentserrors.ErrNotFound, id)
	}
	m.lastField = field
	// Only top-level fields are rewritten here; nested paths are covered by
	// the integration suite.
	for i, e := range doc {
		if e.Key == field {
			doc[i].Value = value
			return nil
		}
	}
	m.docs[id] = append(doc, bson.E{Key: field, Value: value})
	return nil
}

func (m *mockDocumentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.transactions++
	return fn(ctx)
}

func (m *mockDocumentRepository) Ping(context.Context) error { return nil }

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) {
	p.events = append(p.events, event)
}

func newTestService(repo *mockDocumentRepository) (*documentService, *recordingPublisher) {
	log := logger.Discard()
	pub := &recordingPublisher{}
	svc := NewDocumentService(repo, validator.NewPatchValidator(log), pub, &config.Config{Log: log})
	return svc.(*documentService), pub
}

func assertAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.HTTPStatus)
	return appErr
}

func TestCreate_StoresObjectAsSent(t *testing.T) {
	repo := newMockRepo()
	svc, pub := newTestService(repo)

	id, err := svc.Create(context.Background(), []byte(`{"key2":"b","key1":"a"}`))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	stored := repo.docs[id]
	require.Len(t, stored, 2)
	assert.Equal(t, "key2", stored[0].Key, "write path keeps client member order")

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.DocumentCreated, pub.events[0].Type)
	assert.Equal(t, id, pub.events[0].DocumentID)
	assert.Equal(t, `{"key1":"a","key2":"b"}`, string(pub.events[0].Data))
}

func TestCreate_WrapsNonObjects(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`[1,2]`, `{"data":[1,2]}`},
		{`"text"`, `{"data":"text"}`},
		{`42`, `{"data":42}`},
		{`null`, `{"data":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			repo := newMockRepo()
			svc, _ := newTestService(repo)

			id, err := svc.Create(context.Background(), []byte(tt.body))
			require.NoError(t, err)

			doc, err := svc.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(doc.Data))
		})
	}
}

func TestCreate_RejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"a":`},
		{"empty", ``},
		{"reserved id", `{"_id":"mine","a":1}`},
		{"top-level operator", `{"$set":{"a":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			svc, pub := newTestService(repo)

			_, err := svc.Create(context.Background(), []byte(tt.body))
			appErr := assertAppError(t, err, http.StatusBadRequest)
			assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
			assert.Empty(t, repo.docs)
			assert.Empty(t, pub.events)
		})
	}
}

func TestCreate_StoreFailure(t *testing.T) {
	repo := newMockRepo()
	repo.createFunc = func(context.Context, string, bson.D) error { return errors.New("connection reset") }
	svc, pub := newTestService(repo)

	_, err := svc.Create(context.Background(), []byte(`{}`))
	assertAppError(t, err, http.StatusInternalServerError)
	assert.Empty(t, pub.events)
}

func TestCreate_KeepsDollarKeyedObjects(t *testing.T) {
	bodies := []string{
		`{"ref":{"$oid":"5f1c9a3e2b1d4c0012345678"}}`,
		`{"blob":{"$binary":{"base64":"AQID","subType":"00"}}}`,
		`{"lo":{"$minKey":1}}`,
		`{"big":{"$numberLong":"9007199254740993"}}`,
		`{"gone":{"$undefined":true}}`,
		`{"q":{"$gt":1,"$lt":5}}`,
		`{"when":{"$date":"not a date"}}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			repo := newMockRepo()
			svc, _ := newTestService(repo)

			id, err := svc.Create(context.Background(), []byte(body))
			require.NoError(t, err)

			doc, err := svc.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, body, string(doc.Data))
		})
	}
}

func TestCreate_DecodesWrittenWrappers(t *testing.T) {
	body := `{"at":{"$date":"2020-01-02T03:04:05.006Z"},"d":{"$numberDecimal":"1.10"},"re":{"$regularExpression":{"pattern":"^a","options":"i"}}}`

	repo := newMockRepo()
	svc, _ := newTestService(repo)

	id, err := svc.Create(context.Background(), []byte(body))
	require.NoError(t, err)

	stored := repo.docs[id]
	require.Len(t, stored, 3)
	assert.IsType(t, primitive.DateTime(0), stored[0].Value)
	assert.IsType(t, primitive.Decimal128{}, stored[1].Value)
	assert.IsType(t, primitive.Regex{}, stored[2].Value)

	doc, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, body, string(doc.Data))
}

func TestGet_ReturnsCanonicalDocument(t *testing.T) {
	repo := newMockRepo()
	repo.docs["doc"] = bson.D{
		{Key: "key2", Value: "b"},
		{Key: "key1", Value: "a"},
		{Key: "nested", Value: bson.A{bson.D{{Key: "b", Value: int32(1)}, {Key: "a", Value: int32(2)}}, "x"}},
	}
	svc, _ := newTestService(repo)

	doc, err := svc.Get(context.Background(), "doc")
	require.NoError(t, err)

	assert.Equal(t, `{"key1":"a","key2":"b","nested":[{"a":2,"b":1},"x"]}`, string(doc.Data))
	assert.Equal(t, canonical.DigestBytes(doc.Data), doc.ETag)
	assert.Equal(t, "doc", doc.ID)
}

func TestGet_ETagIgnoresStoredKeyOrder(t *testing.T) {
	repo := newMockRepo()
	repo.docs["one"] = bson.D{{Key: "a", Value: int32(1)}, {Key: "b", Value: int32(2)}}
	repo.docs["two"] = bson.D{{Key: "b", Value: int32(2)}, {Key: "a", Value: int32(1)}}
	svc, _ := newTestService(repo)

	one, err := svc.Get(context.Background(), "one")
	require.NoError(t, err)
	two, err := svc.Get(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, one.Data, two.Data)
	assert.Equal(t, one.ETag, two.ETag)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(newMockRepo())

	_, err := svc.Get(context.Background(), "missing")
	appErr := assertAppError(t, err, http.StatusNotFound)
	assert.Equal(t, apperrors.MsgNotFound, appErr.Message)
}

func TestReplace(t *testing.T) {
	repo := newMockRepo()
	repo.docs["doc"] = bson.D{{Key: "old", Value: true}}
	svc, pub := newTestService(repo)

	require.NoError(t, svc.Replace(context.Background(), "doc", []byte(`["a"]`)))
	doc, err := svc.Get(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, `{"data":["a"]}`, string(doc.Data))
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.DocumentReplaced, pub.events[0].Type)

	err = svc.Replace(context.Background(), "missing", []byte(`{}`))
	assertAppError(t, err, http.StatusNotFound)
	_, exists := repo.docs["missing"]
	assert.False(t, exists, "replace must not upsert")

	err = svc.Replace(context.Background(), "doc", []byte(`{`))
	assertAppError(t, err, http.StatusBadRequest)
}

func patchRequest(path, data string) *model.PatchRequest {
	return &model.PatchRequest{
		Action: model.ActionArrayUpsert,
		Path:   path,
		Data:   json.RawMessage(data),
	}
}

func TestPatch_ArrayUpsert(t *testing.T) {
	tests := []struct {
		name     string
		messages bson.A
		data     string
		want     string
	}{
		{
			name:     "replaces matching element",
			messages: bson.A{bson.D{{Key: "id", Value: int32(1)}, {Key: "t", Value: "a"}}, bson.D{{Key: "id", Value: int32(2)}}},
			data:     `{"id":1,"t":"b"}`,
			want:     `{"messages":[{"id":1,"t":"b"},{"id":2}]}`,
		},
		{
			name:     "appends when no element matches",
			messages: bson.A{bson.D{{Key: "id", Value: int32(1)}}},
			data:     `{"id":3}`,
			want:     `{"messages":[{"id":1},{"id":3}]}`,
		},
		{
			name:     "replaces every match",
			messages: bson.A{bson.D{{Key: "id", Value: "x"}}, "plain", bson.D{{Key: "id", Value: "x"}}},
			data:     `{"id":"x","n":1}`,
			want:     `{"messages":[{"id":"x","n":1},"plain",{"id":"x","n":1}]}`,
		},
		{
			name:     "numbers compare by value",
			messages: bson.A{bson.D{{Key: "id", Value: float64(7)}}, bson.D{{Key: "id", Value: int64(7)}}},
			data:     `{"id":7,"v":true}`,
			want:     `{"messages":[{"id":7,"v":true},{"id":7,"v":true}]}`,
		},
		{
			name:     "string and number ids differ",
			messages: bson.A{bson.D{{Key: "id", Value: "7"}}},
			data:     `{"id":7}`,
			want:     `{"messages":[{"id":"7"},{"id":7}]}`,
		},
		{
			name:     "object ids never match",
			messages: bson.A{bson.D{{Key: "id", Value: bson.D{{Key: "k", Value: int32(1)}}}}},
			data:     `{"id":{"k":1}}`,
			want:     `{"messages":[{"id":{"k":1}},{"id":{"k":1}}]}`,
		},
		{
			name:     "null ids match",
			messages: bson.A{bson.D{{Key: "id", Value: nil}, {Key: "old", Value: true}}},
			data:     `{"id":null}`,
			want:     `{"messages":[{"id":null}]}`,
		},
		{
			name:     "empty array",
			messages: bson.A{},
			data:     `{"id":1}`,
			want:     `{"messages":[{"id":1}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			repo.docs["doc"] = bson.D{{Key: "messages", Value: tt.messages}}
			svc, pub := newTestService(repo)

			require.NoError(t, svc.Patch(context.Background(), "doc", patchRequest("messages", tt.data)))
			assert.Equal(t, 1, repo.transactions)
			assert.Equal(t, "messages", repo.lastField)

			doc, err := svc.Get(context.Background(), "doc")
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(doc.Data))

			require.Len(t, pub.events, 1)
			assert.Equal(t, events.DocumentArrayUpserted, pub.events[0].Type)
			assert.Equal(t, tt.want, string(pub.events[0].Data))
		})
	}
}

func TestPatch_NestedPathField(t *testing.T) {
	repo := newMockRepo()
	repo.docs["doc"] = bson.D{{Key: "rooms", Value: bson.A{bson.D{{Key: "log", Value: bson.A{}}}}}}

	var gotField string
	var gotValue any
	repo.updateFieldFunc = func(_ context.Context, _ string, field string, value any) error {
		gotField, gotValue = field, value
		return nil
	}
	svc, pub := newTestService(repo)

	require.NoError(t, svc.Patch(context.Background(), "doc", patchRequest("rooms[0].log", `{"id":1}`)))
	assert.Equal(t, "rooms.0.log", gotField)
	assert.Equal(t, bson.A{bson.D{{Key: "id", Value: int32(1)}}}, gotValue)
	require.Len(t, pub.events, 1)
	assert.Equal(t, `{"rooms":[{"log":[{"id":1}]}]}`, string(pub.events[0].Data))
}

func TestPatch_NonCanonicalIndexIsUnresolved(t *testing.T) {
	for _, path := range []string{"rooms[+1].log", "rooms[01].log", "rooms.01.log", "rooms[-0].log"} {
		t.Run(path, func(t *testing.T) {
			repo := newMockRepo()
			repo.docs["doc"] = bson.D{{Key: "rooms", Value: bson.A{
				bson.D{{Key: "log", Value: bson.A{}}},
				bson.D{{Key: "log", Value: bson.A{}}},
			}}}
			called := false
			repo.updateFieldFunc = func(context.Context, string, string, any) error {
				called = true
				return nil
			}
			svc, pub := newTestService(repo)

			err := svc.Patch(context.Background(), "doc", patchRequest(path, `{"id":1}`))
			assertAppError(t, err, http.StatusUnprocessableEntity)
			assert.False(t, called, "no update may be issued for an unresolved path")
			assert.Empty(t, pub.events)
		})
	}
}

func TestPatch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		req    *model.PatchRequest
		status int
	}{
		{"missing document", "missing", patchRequest("messages", `{"id":1}`), http.StatusNotFound},
		{"path is not an array", "doc", patchRequest("title", `{"id":1}`), http.StatusUnprocessableEntity},
		{"path does not exist", "doc", patchRequest("nope", `{"id":1}`), http.StatusUnprocessableEntity},
		{"unknown action", "doc", &model.PatchRequest{Action: "MERGE", Path: "messages", Data: json.RawMessage(`{"id":1}`)}, http.StatusUnprocessableEntity},
		{"data without id", "doc", patchRequest("messages", `{"x":1}`), http.StatusUnprocessableEntity},
		{"operator path", "doc", patchRequest(`["$set"]`, `{"id":1}`), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			repo.docs["doc"] = bson.D{{Key: "title", Value: "t"}, {Key: "messages", Value: bson.A{}}}
			svc, pub := newTestService(repo)

			err := svc.Patch(context.Background(), tt.id, tt.req)
			assertAppError(t, err, tt.status)
			assert.Empty(t, pub.events)
		})
	}
}

func TestPatch_StoreFailureIsInternal(t *testing.T) {
	repo := newMockRepo()
	repo.docs["doc"] = bson.D{{Key: "messages", Value: bson.A{}}}
	repo.updateFieldFunc = func(context.Context, string, string, any) error {
		return errors.New("write conflict")
	}
	svc, _ := newTestService(repo)

	err := svc.Patch(context.Background(), "doc", patchRequest("messages", `{"id":1}`))
	appErr := assertAppError(t, err, http.StatusInternalServerError)
	assert.Equal(t, `{"error":"Something went wrong"}`, string(appErr.ToJSON()))
}

func TestDelete_Idempotent(t *testing.T) {
	repo := newMockRepo()
	repo.docs["doc"] = bson.D{}
	svc, pub := newTestService(repo)

	require.NoError(t, svc.Delete(context.Background(), "doc"))
	require.NoError(t, svc.Delete(context.Background(), "doc"))
	assert.Empty(t, repo.docs)
	require.Len(t, pub.events, 2)
	assert.Equal(t, events.DocumentDeleted, pub.events[0].Type)
	assert.Nil(t, pub.events[0].Data)

	repo.deleteFunc = func(context.Context, string) error { return errors.New("timeout") }
	assertAppError(t, svc.Delete(context.Background(), "doc"), http.StatusInternalServerError)
}

func TestSameID(t *testing.T) {
	tests := []struct {
		name string
		a, b canonical.Value
		want bool
	}{
		{"equal ints", canonical.Int(1), canonical.Int(1), true},
		{"int and float", canonical.Int(2), canonical.Float(2), true},
		{"different numbers", canonical.Int(1), canonical.Int(2), false},
		{"strings", canonical.Text("a"), canonical.Text("a"), true},
		{"string vs number", canonical.Text("1"), canonical.Int(1), false},
		{"bools", canonical.Bool(true), canonical.Bool(true), true},
		{"nulls", canonical.Null{}, canonical.Null{}, true},
		{"arrays", canonical.Array{}, canonical.Array{}, false},
		{"objects", canonical.Object{}, canonical.Object{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameID(tt.a, tt.b))
		})
	}
}
