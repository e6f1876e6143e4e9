package transform_test

import (
	"context"
	"testing"

	"wordsmith/internal/api"
	"wordsmith/internal/api/apitest"
	"wordsmith/internal/transform"
)

func TestHTTPRemote_AgainstFakeService(t *testing.T) {
	srv := apitest.Serve(apitest.New())
	defer srv.Close()

	r := transform.NewHTTPRemote(api.New(srv.URL))
	out, err := r.Transform(context.Background(), "hello", "friendly")
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if out.Text != "Hey! hello" || out.ID == "" {
		t.Fatalf("unexpected output %+v", out)
	}
}
