// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	CargoNotFoundId Id = iota + 1
	CargoMetadataFailedId
	NoPackageSelectedId
	MissingWapmTableId
	NoPublishableTargetId
	ManifestInvalidId
	BuildFailedId
	ArtifactMissingId
	PublishFailedId
	ConfigLoadFailedId
	ManifestWriteFailedId
	PackFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation for the failing step
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Title returns the text of the message's first heading.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal markdown. stylePath is a glamour style
// name ("auto", "dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	cargoNotFoundIssue = &Issue{
		id: CargoNotFoundId,
		mdMsg: `
# Cargo could not be started!

cargo-wapm drives Cargo to read the workspace metadata and to compile your crates.

## Things you can try:
- Make sure ` + "`cargo`" + ` is on your PATH:
~~~
$ cargo --version
~~~
- Point cargo-wapm at a specific binary with the ` + "`CARGO`" + ` environment variable
  or the ` + "`cargo_bin`" + ` configuration key
- Use ` + "`--no-cargo-metadata`" + ` to read ` + "`Cargo.toml`" + ` directly (single crates only)`,
		docLinks: []HttpLink{"https://doc.rust-lang.org/cargo/getting-started/installation.html"},
	}

	cargoMetadataFailedIssue = &Issue{
		id: CargoMetadataFailedId,
		mdMsg: `
# Unable to read the workspace metadata!

` + "`cargo metadata`" + ` exited unsuccessfully. Its output is shown above.

## Things you can try:
- Check that ` + "`Cargo.toml`" + ` parses:
~~~
$ cargo metadata --format-version 1 --no-deps
~~~
- Pass the manifest explicitly with ` + "`--manifest-path path/to/Cargo.toml`" + `
- Check the feature names given to ` + "`--features`",
		docLinks: []HttpLink{"https://doc.rust-lang.org/cargo/commands/cargo-metadata.html"},
	}

	noPackageSelectedIssue = &Issue{
		id: NoPackageSelectedId,
		mdMsg: `
# Which package should be published?

The current directory is not inside a workspace member and the workspace has no root package.

## Things you can try:
- ` + "`cd`" + ` into the crate you want to publish
- Publish every member with a ` + "`[package.metadata.wapm]`" + ` table:
~~~
$ cargo wapm --workspace
~~~`,
	}

	missingWapmTableIssue = &Issue{
		id: MissingWapmTableId,
		mdMsg: `
# Missing [package.metadata.wapm] table!

The selected crate does not say how it should be published.

## Add a table like this to Cargo.toml:
~~~toml
[package.metadata.wapm]
namespace = "my-namespace"
abi = "wasi"
~~~`,
	}

	noPublishableTargetIssue = &Issue{
		id: NoPublishableTargetId,
		mdMsg: `
# Nothing to publish!

Only binaries and ` + "`cdylib`" + ` libraries compile to a WebAssembly module.

## Things you can try:
- Add a binary (` + "`src/main.rs`" + `) to the crate
- Make the library a ` + "`cdylib`" + `:
~~~toml
[lib]
crate-type = ["cdylib", "rlib"]
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# The generated wapm.toml is not valid!

The registry would reject this package. Every finding above names the field that needs attention.

## Things you can try:
- Fill in ` + "`description`" + ` and ` + "`license`" + ` in ` + "`[package]`" + `
- Set ` + "`namespace`" + ` in ` + "`[package.metadata.wapm]`" + `
- Check the findings without building anything:
~~~
$ cargo wapm validate
~~~`,
		docLinks: []HttpLink{"https://docs.wasmer.io/registry/manifest"},
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Compilation failed!

` + "`cargo build`" + ` exited unsuccessfully for a WebAssembly target.

## Things you can try:
- Install the target the module's abi needs:
~~~
$ rustup target add wasm32-wasi
~~~
- Build by hand to see the full output:
~~~
$ cargo build --release --target wasm32-wasi
~~~`,
		extLinks: []HttpLink{"https://rust-lang.github.io/rustup/cross-compilation.html"},
	}

	artifactMissingIssue = &Issue{
		id: ArtifactMissingId,
		mdMsg: `
# Compiled module not found!

The build finished but the expected ` + "`.wasm`" + ` file is not in the target directory.

## Things you can try:
- Run without ` + "`--skip-build`" + `
- Check that ` + "`--debug`" + ` matches the profile you built
- Check a custom ` + "`[lib] name`" + ` or ` + "`[[bin]] name`" + ` in Cargo.toml`,
	}

	publishFailedIssue = &Issue{
		id: PublishFailedId,
		mdMsg: `
# Publishing failed!

The registry CLI exited unsuccessfully. Its output is shown above.

## Things you can try:
- Log in to the registry:
~~~
$ wapm login
~~~
- Try a dry run first with ` + "`--dry-run`" + `
- Point ` + "`publish_command`" + ` in the configuration at the right CLI`,
		docLinks: []HttpLink{"https://docs.wasmer.io/registry/cli"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file is missing, has a syntax error, or does not match the schema.

## Things you can try:
- Print the effective configuration:
~~~
$ cargo wapm config show
~~~
- Write a fresh default configuration:
~~~
$ cargo wapm config init
~~~`,
	}

	manifestWriteFailedIssue = &Issue{
		id: ManifestWriteFailedId,
		mdMsg: `
# Unable to write wapm.toml!

## Things you can try:
- Check that the output directory exists and is writable
- Check the free disk space
- Pass a different location with ` + "`--output`",
	}

	packFailedIssue = &Issue{
		id: PackFailedId,
		mdMsg: `
# Unable to assemble the package!

A file the manifest refers to could not be copied into the publish directory.

## Things you can try:
- Check that the readme, license file and binding files exist
- Keep binding files and ` + "`[fs]`" + ` directories inside the crate directory
- Check that ` + "`target/wapm`" + ` is writable`,
	}

	issues = map[Id]*Issue{
		cargoNotFoundIssue.Id():       cargoNotFoundIssue,
		cargoMetadataFailedIssue.Id(): cargoMetadataFailedIssue,
		noPackageSelectedIssue.Id():   noPackageSelectedIssue,
		missingWapmTableIssue.Id():    missingWapmTableIssue,
		noPublishableTargetIssue.Id(): noPublishableTargetIssue,
		manifestInvalidIssue.Id():     manifestInvalidIssue,
		buildFailedIssue.Id():         buildFailedIssue,
		artifactMissingIssue.Id():     artifactMissingIssue,
		publishFailedIssue.Id():       publishFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		manifestWriteFailedIssue.Id(): manifestWriteFailedIssue,
		packFailedIssue.Id():          packFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for issue := range maps.Values(issues) {
		out = append(out, issue)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
