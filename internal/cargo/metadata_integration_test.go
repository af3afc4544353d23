// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
	"github.com/testcontainers/testcontainers-go/wait"

	"cargo-wapm/internal/testutil"
	"cargo-wapm/pkg/cargometa"
)

const rustImage = "docker.io/library/rust:1-slim"

const integrationCargoToml = `[package]
name = "hello-wasi"
version = "0.1.0"
edition = "2021"
description = "Integration fixture"
license = "MIT"

[package.metadata.wapm]
namespace = "fixture"
abi = "wasi"
`

// checkTestcontainersAvailable safely checks if testcontainers can be used.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestMetadata_Integration runs a real `cargo metadata` inside a rust container
// and feeds its output through the same parser the Runner uses.
func TestMetadata_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping cargo integration test: container engine not available")
	}

	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:      rustImage,
		Cmd:        []string{"sleep", "infinity"},
		WaitingFor: wait.ForExec([]string{"cargo", "--version"}),
		Files: []testcontainers.ContainerFile{
			{Reader: strings.NewReader(integrationCargoToml), ContainerFilePath: "/work/Cargo.toml", FileMode: 0o644},
			{Reader: strings.NewReader("fn main() {}\n"), ContainerFilePath: "/work/src/main.rs", FileMode: 0o644},
		},
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skipping cargo integration test: failed to start %s: %v", rustImage, err)
	}
	t.Cleanup(func() {
		if termErr := container.Terminate(context.Background()); termErr != nil {
			t.Logf("failed to terminate container: %v", termErr)
		}
	})

	args := append([]string{"cargo"}, MetadataArgs(cargometa.LoadOptions{ManifestPath: "/work/Cargo.toml"})...)
	args = append(args, "--no-deps")
	code, reader, err := container.Exec(ctx, args, tcexec.Multiplexed())
	if err != nil {
		t.Fatalf("exec cargo metadata: %v", err)
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read cargo metadata output: %v", err)
	}
	if code != 0 {
		t.Fatalf("cargo metadata exited with %d:\n%s", code, out)
	}

	// Multiplexed output interleaves stderr; the JSON document is the last line.
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	meta, err := cargometa.Parse([]byte(lines[len(lines)-1]))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	pkgs, err := cargometa.SelectPackages(meta, cargometa.SelectOptions{CurrentDir: "/work"})
	if err != nil {
		t.Fatalf("SelectPackages() error = %v", err)
	}
	src, err := cargometa.FromPackage(pkgs[0])
	if err != nil {
		t.Fatalf("FromPackage() error = %v", err)
	}
	if src.Wapm.Namespace != "fixture" {
		t.Errorf("Namespace = %q, want fixture", src.Wapm.Namespace)
	}
	if len(src.Targets) != 1 || src.Targets[0].Kind != cargometa.TargetBinary {
		t.Errorf("Targets = %+v, want one binary", src.Targets)
	}
}
