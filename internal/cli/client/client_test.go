package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhub-dev/bookhub/internal/cli/session"
)

type memPersister struct {
	saved  session.Session
	exists bool
}

func (m *memPersister) Save(s session.Session) error {
	m.saved, m.exists = s, true
	return nil
}

func (m *memPersister) Load() (session.Session, bool, error) {
	return m.saved, m.exists, nil
}

func (m *memPersister) Delete() error {
	m.saved, m.exists = session.Session{}, false
	return nil
}

func adaSession(token string) session.Session {
	return session.Session{
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		Role:        session.RoleVisitor,
		IDToken:     "id-token",
		AccessToken: token,
	}
}

func TestBuildCapturesCurrentToken(t *testing.T) {
	store := session.NewStore(&memPersister{})
	require.NoError(t, store.Set(adaSession("token-one")))

	factory := NewFactory("http://example.invalid", store)
	first := factory.Build()
	assert.Equal(t, "token-one", first.accessToken)

	// A later sign-in must be reflected by the next Build, not by the
	// client already handed out
	require.NoError(t, store.Set(adaSession("token-two")))
	assert.Equal(t, "token-one", first.accessToken)
	assert.Equal(t, "token-two", factory.Build().accessToken)
}

func TestBuildWithEmptySessionStillWorks(t *testing.T) {
	store := session.NewStore(&memPersister{})
	factory := NewFactory("http://example.invalid", store)

	c := factory.Build()
	require.NotNil(t, c)
	assert.Empty(t, c.accessToken)
}

func TestBearerHeaderSentAndOmitted(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	store := session.NewStore(&memPersister{})
	factory := NewFactory(srv.URL, store)

	_, err := factory.Build().ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "signed-out client must not send a bearer header")

	require.NoError(t, store.Set(adaSession("fresh-token")))
	_, err = factory.Build().ListBooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer fresh-token", gotAuth)
}

func TestDomainErrorInsideTransportSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/borrow", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		// transport 200, domain failure in the envelope
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 404,
			"message":    "Book not found or already borrowed",
		}))
	}))
	defer srv.Close()

	store := session.NewStore(&memPersister{})
	require.NoError(t, store.Set(adaSession("token")))

	err := NewFactory(srv.URL, store).Build().BorrowBook(context.Background(), "Dune")
	require.Error(t, err)
	assert.Equal(t, 404, DomainStatus(err))
	assert.Contains(t, err.Error(), "already borrowed")
}

func TestMutationSuccessEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/add_book", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Dune", body["book_name"])
		assert.Equal(t, "Frank Herbert", body["author"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 201,
			"message":    "Book added",
		}))
	}))
	defer srv.Close()

	store := session.NewStore(&memPersister{})
	require.NoError(t, store.Set(adaSession("token")))

	err := NewFactory(srv.URL, store).Build().AddBook(context.Background(), "Dune", "Frank Herbert")
	require.NoError(t, err)
}

func TestListBooksDecodesPlainJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"book_name":"Dune","author":"Frank Herbert","borrowby":"","borrow_date":""}]`))
	}))
	defer srv.Close()

	store := session.NewStore(&memPersister{})
	require.NoError(t, store.Set(adaSession("token")))

	books, err := NewFactory(srv.URL, store).Build().ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Name)
	assert.Equal(t, "Frank Herbert", books[0].Author)
}

func TestUnauthenticatedRejectionSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 401,
			"message":    "Authorization header is missing",
		}))
	}))
	defer srv.Close()

	store := session.NewStore(&memPersister{})
	_, err := NewFactory(srv.URL, store).Build().ListUsers(context.Background())
	require.Error(t, err)
	assert.Equal(t, 401, DomainStatus(err))
}

func TestPathEscapingOnDeletes(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"statusCode": 200,
			"message":    "Deleted",
		}))
	}))
	defer srv.Close()

	store := session.NewStore(&memPersister{})
	require.NoError(t, store.Set(adaSession("token")))

	err := NewFactory(srv.URL, store).Build().DeleteBook(context.Background(), "The C Programming Language")
	require.NoError(t, err)
	assert.Equal(t, "/api/delete_book/The%20C%20Programming%20Language", gotPath)
}
