package server

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unihub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostRequiresMembership(t *testing.T) {
	s, app, _ := newTestServer(t)
	createUser(t, s.db, "alice", "pw", models.RoleMember)
	createUser(t, s.db, "bob", "pw", models.RoleMember)
	aliceSID := login(t, app, "alice", "pw")
	bobSID := login(t, app, "bob", "pw")

	resp := do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/new",
		body:   map[string]string{"name": "Members Only"},
		accept: "application/json",
		cookie: aliceSID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := uint(decodeJSON(t, resp)["community"].(map[string]any)["id"].(float64))

	// Bob has not joined: 403.
	resp = do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/create-post",
		body:   map[string]any{"post_text": "hi", "community_id": id},
		accept: "application/json",
		cookie: bobSID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// After joining, posting works.
	resp = do(t, app, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/communities/%d/join", id),
		accept: "application/json",
		cookie: bobSID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/create-post",
		body:   map[string]any{"post_text": "hi", "community_id": id},
		accept: "application/json",
		cookie: bobSID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decodeJSON(t, resp)["post"].(map[string]any)
	assert.Equal(t, "hi", post["text"])

	// Empty text is rejected.
	resp = do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/create-post",
		body:   map[string]any{"post_text": "   ", "community_id": id},
		accept: "application/json",
		cookie: bobSID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePostWithImage(t *testing.T) {
	s, app, _ := newTestServer(t)
	createUser(t, s.db, "alice", "pw", models.RoleMember)
	sid := login(t, app, "alice", "pw")

	resp := do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/new",
		body:   map[string]string{"name": "Pics"},
		accept: "application/json",
		cookie: sid,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeJSON(t, resp)["community"].(map[string]any)["id"].(float64)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("post_text", "look at this"))
	require.NoError(t, mw.WriteField("community_id", fmt.Sprintf("%d", int(id))))
	part, err := mw.CreateFormFile("post_image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfakedata"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/communities/create-post", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", "unihub_session="+sid)
	httpResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, httpResp.StatusCode)

	post := decodeJSON(t, httpResp)["post"].(map[string]any)
	imageURL, _ := post["image_url"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/"), "unexpected image url %q", imageURL)
	assert.True(t, strings.HasSuffix(imageURL, ".png"))

	// The file landed in the upload dir under its generated name.
	saved := filepath.Join(s.config.UploadDir, strings.TrimPrefix(imageURL, "/uploads/"))
	_, err = os.Stat(saved)
	assert.NoError(t, err)
}

func TestCreatePostRejectsBadImageType(t *testing.T) {
	s, app, _ := newTestServer(t)
	createUser(t, s.db, "alice", "pw", models.RoleMember)
	sid := login(t, app, "alice", "pw")

	resp := do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/new",
		body:   map[string]string{"name": "Pics"},
		accept: "application/json",
		cookie: sid,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeJSON(t, resp)["community"].(map[string]any)["id"].(float64)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("post_text", "evil"))
	require.NoError(t, mw.WriteField("community_id", fmt.Sprintf("%d", int(id))))
	part, err := mw.CreateFormFile("post_image", "payload.exe")
	require.NoError(t, err)
	_, err = part.Write([]byte("MZ"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/communities/create-post", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", "unihub_session="+sid)
	httpResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
}

func TestLikePostIdempotent(t *testing.T) {
	s, app, _ := newTestServer(t)
	createUser(t, s.db, "alice", "pw", models.RoleMember)
	createUser(t, s.db, "bob", "pw", models.RoleMember)
	aliceSID := login(t, app, "alice", "pw")
	bobSID := login(t, app, "bob", "pw")

	resp := do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/new",
		body:   map[string]string{"name": "Likes"},
		accept: "application/json",
		cookie: aliceSID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	communityID := uint(decodeJSON(t, resp)["community"].(map[string]any)["id"].(float64))

	resp = do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/create-post",
		body:   map[string]any{"post_text": "like me", "community_id": communityID},
		accept: "application/json",
		cookie: aliceSID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := uint(decodeJSON(t, resp)["post"].(map[string]any)["id"].(float64))

	likePath := fmt.Sprintf("/posts/%d/like", postID)

	// Two likes from the same user count once.
	for i := 0; i < 2; i++ {
		resp := do(t, app, request{method: http.MethodPost, path: likePath, accept: "application/json", cookie: aliceSID})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, decodeJSON(t, resp)["like_count"])
	}

	// A second user bumps it to two.
	resp = do(t, app, request{method: http.MethodPost, path: likePath, accept: "application/json", cookie: bobSID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, decodeJSON(t, resp)["like_count"])

	// Liking a missing post is a 404.
	resp = do(t, app, request{method: http.MethodPost, path: "/posts/9999/like", accept: "application/json", cookie: aliceSID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHomeFeedLimitAndActivity(t *testing.T) {
	s, app, _ := newTestServer(t)
	createUser(t, s.db, "alice", "pw", models.RoleMember)
	sid := login(t, app, "alice", "pw")

	resp := do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/new",
		body:   map[string]string{"name": "Busy"},
		accept: "application/json",
		cookie: sid,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	communityID := uint(decodeJSON(t, resp)["community"].(map[string]any)["id"].(float64))

	for i := 0; i < 5; i++ {
		resp := do(t, app, request{
			method: http.MethodPost,
			path:   "/communities/create-post",
			body:   map[string]any{"post_text": fmt.Sprintf("post %d", i), "community_id": communityID},
			accept: "application/json",
			cookie: sid,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// Home shows at most 3 posts.
	resp = do(t, app, request{method: http.MethodGet, path: "/home", accept: "application/json", cookie: sid})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeJSON(t, resp)["posts"].([]any), 3)

	// Activity shows all of them.
	resp = do(t, app, request{method: http.MethodGet, path: "/activity", accept: "application/json", cookie: sid})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeJSON(t, resp)["posts"].([]any), 5)
}

func TestDeletePostAuthorization(t *testing.T) {
	s, app, _ := newTestServer(t)
	createUser(t, s.db, "alice", "pw", models.RoleMember)
	createUser(t, s.db, "bob", "pw", models.RoleMember)
	aliceSID := login(t, app, "alice", "pw")
	bobSID := login(t, app, "bob", "pw")

	resp := do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/new",
		body:   map[string]string{"name": "Posts"},
		accept: "application/json",
		cookie: aliceSID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	communityID := uint(decodeJSON(t, resp)["community"].(map[string]any)["id"].(float64))

	resp = do(t, app, request{
		method: http.MethodPost,
		path:   "/communities/create-post",
		body:   map[string]any{"post_text": "mine", "community_id": communityID},
		accept: "application/json",
		cookie: aliceSID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	postID := uint(decodeJSON(t, resp)["post"].(map[string]any)["id"].(float64))

	resp = do(t, app, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/posts/%d/delete", postID),
		accept: "application/json",
		cookie: bobSID,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, app, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/posts/%d/delete", postID),
		accept: "application/json",
		cookie: aliceSID,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
