package service

import (
	"context"
	"errors"
	"testing"

	"mercator-hq/relay/pkg/pcontext"
)

type echoService struct{ tag string }

func (e echoService) Call(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
	s, _ := req.(string)
	return pc, s + ">" + e.tag, nil
}

func TestStackBuildOrdersOutermostFirst(t *testing.T) {
	var order []string

	stack := NewStack()
	stack.Use("outer", func(inner Service) Factory {
		return FactoryFunc(func(previous Service) (Service, error) {
			order = append(order, "outer")
			return ServiceFunc(func(ctx context.Context, pc pcontext.Context, req any) (pcontext.Context, any, error) {
				return inner.Call(ctx, pc, req)
			}), nil
		})
	})
	stack.Use("inner", func(inner Service) Factory {
		return FactoryFunc(func(previous Service) (Service, error) {
			order = append(order, "inner")
			return echoService{tag: "inner"}, nil
		})
	})

	built, err := stack.Build(nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got, want := order, []string{"inner", "outer"}; len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("build order = %v, want %v (innermost must build before outermost can close over it)", got, want)
	}

	_, resp, err := built.Entry.Call(context.Background(), pcontext.Context{}, "req")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if resp != "req>inner" {
		t.Fatalf("resp = %v, want req>inner", resp)
	}
	if names := built.StageNames(); len(names) != 2 || names[0] != "outer" || names[1] != "inner" {
		t.Fatalf("StageNames = %v, want [outer inner]", names)
	}
}

func TestStackBuildPropagatesBuildError(t *testing.T) {
	stack := NewStack()
	stack.Use("bad", func(inner Service) Factory {
		return FactoryFunc(func(previous Service) (Service, error) {
			return nil, errors.New("boom")
		})
	})

	_, err := stack.Build(nil)
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("err = %v, want *BuildError", err)
	}
	if buildErr.Layer != "bad" {
		t.Fatalf("buildErr.Layer = %q, want %q", buildErr.Layer, "bad")
	}
}

func TestStackBuildCarriesPreviousStage(t *testing.T) {
	stack := NewStack()
	var seenPrev []Service
	stack.Use("only", func(inner Service) Factory {
		return FactoryFunc(func(previous Service) (Service, error) {
			seenPrev = append(seenPrev, previous)
			return echoService{tag: "v"}, nil
		})
	})

	first, err := stack.Build(nil)
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	if _, err := stack.Build(first); err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	if len(seenPrev) != 2 || seenPrev[0] != nil || seenPrev[1] == nil {
		t.Fatalf("seenPrev = %v, want [nil, non-nil]", seenPrev)
	}
}

func TestStackBuildRequiresStages(t *testing.T) {
	if _, err := NewStack().Build(nil); err == nil {
		t.Fatal("expected error building an empty stack")
	}
}
