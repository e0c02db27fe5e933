// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeExec records invocations and answers from configured tables.
type fakeExec struct {
	binsOnPath map[string]bool // binary -> LookPath succeeds
	okCommands map[string]bool // "bin arg1 arg2 ..." -> RunSilent succeeds

	pipedName string
	pipedArgs []string
	pipedIn   []byte
	pipedOut  string
	pipedErr  error
}

func (f *fakeExec) LookPath(file string) (string, error) {
	if f.binsOnPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not on PATH: " + file)
}

func (f *fakeExec) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if f.okCommands[key] {
		return nil
	}
	return errors.New("exit 1: " + key)
}

func (f *fakeExec) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.pipedName = name
	f.pipedArgs = args
	f.pipedIn, _ = io.ReadAll(stdin)
	if f.pipedErr != nil {
		return f.pipedErr
	}
	_, err := io.WriteString(stdout, f.pipedOut)
	return err
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *fakeExec
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &fakeExec{
				binsOnPath: map[string]bool{"docker": true},
				okCommands: map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &fakeExec{
				binsOnPath: map[string]bool{"podman": true},
				okCommands: map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "docker daemon down, podman operational",
			exec: &fakeExec{
				binsOnPath: map[string]bool{"docker": true, "podman": true},
				okCommands: map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "both operational prefers docker",
			exec: &fakeExec{
				binsOnPath: map[string]bool{"docker": true, "podman": true},
				okCommands: map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
		{
			name:    "neither available",
			exec:    &fakeExec{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(tt.exec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "no container runtime available") {
					t.Errorf("error should name the missing runtimes, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("got runtime %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	const image = "bner-bc5cdr:latest"

	tests := []struct {
		name    string
		mkRT    func(*fakeExec) Runtime
		ok      map[string]bool
		wantErr bool
	}{
		{
			name: "docker inspect finds tagger image",
			mkRT: func(e *fakeExec) Runtime { return newDockerRuntime(e) },
			ok:   map[string]bool{"docker image inspect " + image: true},
		},
		{
			name:    "docker inspect misses tagger image",
			mkRT:    func(e *fakeExec) Runtime { return newDockerRuntime(e) },
			wantErr: true,
		},
		{
			name: "podman exists finds tagger image",
			mkRT: func(e *fakeExec) Runtime { return newPodmanRuntime(e) },
			ok:   map[string]bool{"podman image exists " + image: true},
		},
		{
			name:    "podman exists misses tagger image",
			mkRT:    func(e *fakeExec) Runtime { return newPodmanRuntime(e) },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := tt.mkRT(&fakeExec{okCommands: tt.ok})
			err := rt.ImageExists(image)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), image) {
					t.Errorf("error should name the image, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunPipesVignettesThroughTagger(t *testing.T) {
	const vignettesJSON = `[{"book_page":12,"question":"He takes metformin for diabetes."}]`
	const taggedJSON = `[{"book_page":12,"bner_question":[{"entity":"diabetes","label":"DISEASE"}]}]`

	exec := &fakeExec{pipedOut: taggedJSON}
	rt := newDockerRuntime(exec)

	var out bytes.Buffer
	err := rt.Run("bner-bc5cdr:latest", RunOptions{Env: map[string]string{"MODEL": "bc5cdr"}},
		strings.NewReader(vignettesJSON), &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != taggedJSON {
		t.Errorf("got output %q, want %q", got, taggedJSON)
	}
	if string(exec.pipedIn) != vignettesJSON {
		t.Errorf("container stdin = %q, want the vignette JSON", exec.pipedIn)
	}
	if exec.pipedName != "docker" {
		t.Errorf("ran binary %q, want docker", exec.pipedName)
	}
}

func TestRunArgumentOrder(t *testing.T) {
	exec := &fakeExec{}
	rt := newPodmanRuntime(exec)

	err := rt.Run("bner-bionlp13cg:latest",
		RunOptions{Env: map[string]string{"MODEL": "bionlp13cg", "BATCH": "8"}},
		strings.NewReader("[]"), io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"run", "--rm", "-i", "--network=none",
		"-e", "BATCH=8",
		"-e", "MODEL=bionlp13cg",
		"bner-bionlp13cg:latest",
	}
	if len(exec.pipedArgs) != len(want) {
		t.Fatalf("got args %v, want %v", exec.pipedArgs, want)
	}
	for i := range want {
		if exec.pipedArgs[i] != want[i] {
			t.Fatalf("arg[%d] = %q, want %q (full args %v)", i, exec.pipedArgs[i], want[i], exec.pipedArgs)
		}
	}
}

func TestRunFailureIsWrapped(t *testing.T) {
	exec := &fakeExec{pipedErr: errors.New("tagger exited with code 137")}
	rt := newDockerRuntime(exec)

	err := rt.Run("bner-bc5cdr:latest", RunOptions{}, strings.NewReader("[]"), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "bner-bc5cdr:latest") {
		t.Errorf("error should name the image, got: %v", err)
	}
}

func TestRuntimeName(t *testing.T) {
	exec := &fakeExec{}
	if got := newDockerRuntime(exec).Name(); got != "docker" {
		t.Errorf("docker runtime name = %q", got)
	}
	if got := newPodmanRuntime(exec).Name(); got != "podman" {
		t.Errorf("podman runtime name = %q", got)
	}
}
