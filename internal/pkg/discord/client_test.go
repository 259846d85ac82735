package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		Token:       "test-token",
		BaseURL:     srv.URL,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
	}, zerolog.Nop())
	return client, srv
}

func TestClientSendsBotAuthorization(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(User{ID: "bot-1", Username: "syncbot", Bot: true})
	}))

	user, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bot test-token", gotAuth)
	assert.Equal(t, "bot-1", user.ID)
}

func TestClientRetriesRateLimitWithRetryAfterHeader(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message":"You are being rate limited.","retry_after":0.01}`)
			return
		}
		json.NewEncoder(w).Encode([]Role{{ID: "r1", Name: "Student"}})
	}))

	roles, err := client.GuildRoles(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, roles, 1)
	assert.Equal(t, "Student", roles[0].Name)
}

func TestClientRetriesRateLimitWithJSONRetryAfter(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// No Retry-After header; the delay comes from the body
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message":"rate limited","retry_after":0.01}`)
			return
		}
		json.NewEncoder(w).Encode([]Channel{})
	}))

	_, err := client.GuildChannels(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientRetriesTransientServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Role{ID: "r1", Name: "Tutor"})
	}))

	role, err := client.CreateRole(context.Background(), "guild-1", RoleParams{Name: "Tutor"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "Tutor", role.Name)
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"boom"}`)
	}))

	_, err := client.GuildRoles(context.Background(), "guild-1")
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"Missing Permissions"}`)
	}))

	err := client.DeleteRole(context.Background(), "guild-1", "r1")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Missing Permissions", apiErr.Message)
}

func TestClientHandlesEmptyBodies(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.RemoveMember(context.Background(), "guild-1", "user-1")
	assert.NoError(t, err)
}

func TestClientCancelledContextStopsRetries(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	client.baseBackoff = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GuildRoles(ctx, "guild-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuildMembersPaginates(t *testing.T) {
	// Two full pages followed by a short final page
	page := func(start, count int) []Member {
		out := make([]Member, count)
		for i := range out {
			out[i] = Member{User: User{ID: fmt.Sprintf("u-%06d", start+i)}}
		}
		return out
	}

	var afters []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))

		switch after {
		case "":
			json.NewEncoder(w).Encode(page(0, memberPageSize))
		case fmt.Sprintf("u-%06d", memberPageSize-1):
			json.NewEncoder(w).Encode(page(memberPageSize, memberPageSize))
		default:
			json.NewEncoder(w).Encode(page(2*memberPageSize, 7))
		}
	}))

	members, err := client.GuildMembers(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Len(t, members, 2*memberPageSize+7)
	assert.Len(t, afters, 3)
	assert.Equal(t, fmt.Sprintf("u-%06d", 2*memberPageSize-1), afters[2])
}

func TestChannelPatchOmitsUntouchedFields(t *testing.T) {
	var rawBody map[string]json.RawMessage
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		json.NewEncoder(w).Encode(Channel{ID: "c1", Name: "renamed"})
	}))

	name := "renamed"
	_, err := client.ModifyChannel(context.Background(), "c1", ChannelPatch{Name: &name})
	require.NoError(t, err)

	assert.Contains(t, rawBody, "name")
	assert.NotContains(t, rawBody, "topic")
	assert.NotContains(t, rawBody, "parent_id")
	assert.NotContains(t, rawBody, "permission_overwrites")
}
