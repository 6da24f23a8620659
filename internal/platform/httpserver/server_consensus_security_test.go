package httpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	consensusengine "tribunal/contexts/governance/consensus-engine"
)

const (
	testAdmin    = "0x00000000000000000000000000000000000000a1"
	testReporter = "0x00000000000000000000000000000000000000b2"
	testVoterA   = "0x00000000000000000000000000000000000000c3"
	testVoterB   = "0x00000000000000000000000000000000000000d4"
)

func newTestServer() *Server {
	return New(
		consensusengine.NewInMemoryModule(nil, slog.Default()),
		slog.Default(),
		Options{Addr: ":0", Auth: Authenticator{TrustCallerHeader: true}},
	)
}

func serve(server *Server, method string, path string, body string, caller string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(HeaderCallerAddress, caller)
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func mustStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rr.Code, rr.Body.String())
	}
}

func initializedServer(t *testing.T) *Server {
	t.Helper()
	server := newTestServer()
	mustStatus(t, serve(server, http.MethodPost, "/v1/admin/initialize", "", testAdmin), http.StatusCreated)
	for _, voter := range []string{testVoterA, testVoterB} {
		rr := serve(server, http.MethodPut, "/v1/voters/"+voter+"/profile", `{"reputation_score":100}`, testAdmin)
		mustStatus(t, rr, http.StatusOK)
	}
	return server
}

func TestHealthz(t *testing.T) {
	rr := serve(newTestServer(), http.MethodGet, "/healthz", "", "")
	mustStatus(t, rr, http.StatusOK)
}

func TestInitializeRequiresCaller(t *testing.T) {
	rr := serve(newTestServer(), http.MethodPost, "/v1/admin/initialize", "", "")
	mustStatus(t, rr, http.StatusUnauthorized)
}

func TestConfigBeforeInitializeIsUnavailable(t *testing.T) {
	rr := serve(newTestServer(), http.MethodGet, "/v1/config", "", "")
	mustStatus(t, rr, http.StatusServiceUnavailable)
}

func TestInitializeTwiceConflicts(t *testing.T) {
	server := initializedServer(t)
	rr := serve(server, http.MethodPost, "/v1/admin/initialize", "", testAdmin)
	mustStatus(t, rr, http.StatusConflict)
}

func TestSetVoterProfileRequiresAdminOrOracle(t *testing.T) {
	server := initializedServer(t)
	rr := serve(server, http.MethodPut, "/v1/voters/"+testVoterA+"/profile", `{"reputation_score":1000}`, testReporter)
	mustStatus(t, rr, http.StatusUnauthorized)
}

func TestFlagVoteFlowApprovesAndRemovesContent(t *testing.T) {
	server := initializedServer(t)

	rr := serve(server, http.MethodPost, "/v1/flags", `{"target_ref":"post-1","reason":"spam"}`, testReporter)
	mustStatus(t, rr, http.StatusCreated)
	var flag struct {
		SubjectID uint64 `json:"subject_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &flag); err != nil {
		t.Fatalf("decode flag: %v", err)
	}
	if flag.SubjectID != 1 || flag.Status != "open" {
		t.Fatalf("unexpected flag %+v", flag)
	}

	rr = serve(server, http.MethodPost, "/v1/subjects/1/votes", `{"choice":"approve"}`, testVoterA)
	mustStatus(t, rr, http.StatusCreated)
	rr = serve(server, http.MethodPost, "/v1/subjects/1/votes", `{"choice":"approve"}`, testVoterB)
	mustStatus(t, rr, http.StatusCreated)

	var cast struct {
		Ballot struct {
			Weight uint64 `json:"weight"`
		} `json:"ballot"`
		Subject struct {
			Status string `json:"status"`
			Tally  struct {
				ApproveWeight uint64 `json:"approve_weight"`
			} `json:"tally"`
		} `json:"subject"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &cast); err != nil {
		t.Fatalf("decode vote: %v", err)
	}
	if cast.Ballot.Weight != 6 || cast.Subject.Tally.ApproveWeight != 12 || cast.Subject.Status != "approved" {
		t.Fatalf("unexpected vote result %+v", cast)
	}

	rr = serve(server, http.MethodGet, "/v1/content-status?target=post-1", "", "")
	mustStatus(t, rr, http.StatusOK)
	if !bytes.Contains(rr.Body.Bytes(), []byte(`"removed"`)) {
		t.Fatalf("expected removed content status, got %s", rr.Body.String())
	}
}

func TestCastVoteTwiceConflicts(t *testing.T) {
	server := initializedServer(t)
	mustStatus(t, serve(server, http.MethodPost, "/v1/flags", `{"target_ref":"post-2","reason":"abuse"}`, testReporter), http.StatusCreated)
	mustStatus(t, serve(server, http.MethodPost, "/v1/subjects/1/votes", `{"choice":"reject"}`, testVoterA), http.StatusCreated)

	rr := serve(server, http.MethodPost, "/v1/subjects/1/votes", `{"choice":"approve"}`, testVoterA)
	mustStatus(t, rr, http.StatusConflict)
}

func TestCastVoteRejectsInvalidSubjectID(t *testing.T) {
	server := initializedServer(t)
	rr := serve(server, http.MethodPost, "/v1/subjects/abc/votes", `{"choice":"approve"}`, testVoterA)
	mustStatus(t, rr, http.StatusBadRequest)
}

func TestCastVoteRejectsMalformedJSON(t *testing.T) {
	server := initializedServer(t)
	mustStatus(t, serve(server, http.MethodPost, "/v1/flags", `{"target_ref":"post-3","reason":"abuse"}`, testReporter), http.StatusCreated)
	rr := serve(server, http.MethodPost, "/v1/subjects/1/votes", `{"choice":`, testVoterA)
	mustStatus(t, rr, http.StatusBadRequest)
}

func TestGetUnknownSubjectIsNotFound(t *testing.T) {
	server := initializedServer(t)
	rr := serve(server, http.MethodGet, "/v1/subjects/99", "", "")
	mustStatus(t, rr, http.StatusNotFound)
}

func TestGetFlagRejectsOtherKinds(t *testing.T) {
	server := initializedServer(t)
	mustStatus(t, serve(server, http.MethodPost, "/v1/disputes", `{"target_ref":"order-1","evidence":"never shipped"}`, testReporter), http.StatusCreated)
	mustStatus(t, serve(server, http.MethodGet, "/v1/disputes/1", "", ""), http.StatusOK)
	mustStatus(t, serve(server, http.MethodGet, "/v1/flags/1", "", ""), http.StatusNotFound)
}

func TestAdminResolveRequiresModerator(t *testing.T) {
	server := initializedServer(t)
	mustStatus(t, serve(server, http.MethodPost, "/v1/flags", `{"target_ref":"post-4","reason":"abuse"}`, testReporter), http.StatusCreated)

	rr := serve(server, http.MethodPost, "/v1/subjects/1/admin-resolve", `{"approve":true}`, testReporter)
	mustStatus(t, rr, http.StatusUnauthorized)

	mustStatus(t, serve(server, http.MethodPost, "/v1/roles/"+testReporter, `{"role":"moderator"}`, testAdmin), http.StatusNoContent)
	rr = serve(server, http.MethodPost, "/v1/subjects/1/admin-resolve", `{"approve":false}`, testReporter)
	mustStatus(t, rr, http.StatusOK)

	rr = serve(server, http.MethodPost, "/v1/subjects/1/votes", `{"choice":"approve"}`, testVoterA)
	mustStatus(t, rr, http.StatusConflict)
}

func TestResetSubjectRequiresAdmin(t *testing.T) {
	server := initializedServer(t)
	mustStatus(t, serve(server, http.MethodPost, "/v1/flags", `{"target_ref":"post-5","reason":"abuse"}`, testReporter), http.StatusCreated)

	mustStatus(t, serve(server, http.MethodDelete, "/v1/subjects/1", "", testReporter), http.StatusUnauthorized)
	mustStatus(t, serve(server, http.MethodDelete, "/v1/subjects/1", "", testAdmin), http.StatusNoContent)
	mustStatus(t, serve(server, http.MethodGet, "/v1/subjects/1", "", ""), http.StatusNotFound)
}

func TestContentStatusRequiresTarget(t *testing.T) {
	rr := serve(newTestServer(), http.MethodGet, "/v1/content-status", "", "")
	mustStatus(t, rr, http.StatusBadRequest)
}

func TestEventStreamWithoutBusIsUnavailable(t *testing.T) {
	rr := serve(newTestServer(), http.MethodGet, "/v1/events/stream", "", "")
	mustStatus(t, rr, http.StatusServiceUnavailable)
}

func TestSystemCallerAddressIsRejectedAtEdge(t *testing.T) {
	server := initializedServer(t)
	rr := serve(server, http.MethodPost, "/v1/flags", `{"target_ref":"post-1","reason":"spam"}`, "system:deadline-sweeper")
	mustStatus(t, rr, http.StatusUnauthorized)

	rr = serve(server, http.MethodPost, "/v1/subjects/1/resolve", "", "SYSTEM:anything")
	mustStatus(t, rr, http.StatusUnauthorized)
}

func TestRevokingStoredAdminRoleFails(t *testing.T) {
	server := initializedServer(t)
	rr := serve(server, http.MethodDelete, "/v1/roles/"+testAdmin+"/admin", "", testAdmin)
	mustStatus(t, rr, http.StatusBadRequest)

	rr = serve(server, http.MethodPut, "/v1/admin/config", mustConfigBody(t, server), testAdmin)
	mustStatus(t, rr, http.StatusOK)
}

func TestProfileAboveBoundIsRejected(t *testing.T) {
	server := initializedServer(t)
	rr := serve(server, http.MethodPut, "/v1/voters/"+testVoterA+"/profile", `{"reputation_score":40000000000000000}`, testAdmin)
	mustStatus(t, rr, http.StatusBadRequest)
}

func mustConfigBody(t *testing.T, server *Server) string {
	t.Helper()
	rr := serve(server, http.MethodGet, "/v1/config", "", "")
	mustStatus(t, rr, http.StatusOK)
	return rr.Body.String()
}
