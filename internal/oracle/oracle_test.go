package oracle

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewScripted("hello"))

	t.Run("Get", func(t *testing.T) {
		o, err := r.Get("scripted")
		if err != nil {
			t.Fatal(err)
		}
		if o.Name() != "scripted" {
			t.Errorf("wrong oracle: %s", o.Name())
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		if _, err := r.Get("claude"); err == nil {
			t.Fatal("expected error for unknown oracle")
		}
	})

	t.Run("List", func(t *testing.T) {
		names := r.List()
		if len(names) != 1 || names[0] != "scripted" {
			t.Errorf("wrong names: %v", names)
		}
	})
}

func TestScripted(t *testing.T) {
	t.Run("ReplaysInOrder", func(t *testing.T) {
		s := NewScripted("one", "two")
		for _, want := range []string{"one", "two"} {
			got, err := s.Complete(context.Background(), Request{Prompt: "p"})
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		}
		if _, err := s.Complete(context.Background(), Request{}); err == nil {
			t.Fatal("exhausted oracle should error")
		}
	})

	t.Run("FailAt", func(t *testing.T) {
		s := NewScripted("ok")
		s.FailAt[0] = errors.New("boom")
		if _, err := s.Complete(context.Background(), Request{}); err == nil {
			t.Fatal("expected injected failure")
		}
	})

	t.Run("RecordsRequests", func(t *testing.T) {
		s := NewScripted("ok")
		if _, err := s.Complete(context.Background(), Request{Prompt: "hi", Temperature: 0.7}); err != nil {
			t.Fatal(err)
		}
		if s.Calls() != 1 || len(s.Requests) != 1 || s.Requests[0].Prompt != "hi" {
			t.Errorf("request not recorded: %+v", s.Requests)
		}
	})

	t.Run("HonorsCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := NewScripted("ok")
		if _, err := s.Complete(ctx, Request{}); !errors.Is(err, context.Canceled) {
			t.Errorf("wrong error: %v", err)
		}
	})
}
