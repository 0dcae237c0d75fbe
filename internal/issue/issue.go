// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	InvalidInputId Id = iota + 1
	ModuleNotFoundId
	InvalidAppId
	ToolNotFoundId
	ExtractionFailedId
	SigningFailedId
	EncryptedExecutableId
	ConfigLoadFailedId
	ExtrasMissingId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue as terminal Markdown using the given glamour style
// ("dark", "light", "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	invalidInputIssue = &Issue{
		id: InvalidInputId,
		mdMsg: `
# Invalid input!

cyan patches either an unpacked app bundle (*.app) or an iOS archive (*.ipa).

## Things you can try:
- Pass the path of the .ipa or .app with ` + "`-i`" + `
- Make sure the path exists and is readable`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Some modules could not be found!

Every path passed with ` + "`-f`" + ` must exist before anything is modified.

## Things you can try:
- Check the spelling of each path
- Quote paths containing spaces`,
	}

	invalidAppIssue = &Issue{
		id: InvalidAppId,
		mdMsg: `
# Invalid app!

The archive or bundle does not look like an iOS application.

## What cyan expects:
- ipa archives contain a ` + "`Payload/`" + ` folder with exactly one ` + "`*.app`" + `
- every app has an ` + "`Info.plist`" + ` naming its ` + "`CFBundleExecutable`",
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# A required tool is missing!

cyan drives ldid, install_name_tool, otool, lipo and insert_dylib from its tools directory.

## Things you can try:
- Check the output of ` + "`cyan config show`" + ` for the tools directory in use
- Set ` + "`tools_dir`" + ` in your config file to a directory containing the tools`,
	}

	extractionFailedIssue = &Issue{
		id: ExtractionFailedId,
		mdMsg: `
# Failed to extract a package!

The .deb could not be unpacked.

## Things you can try:
- Verify the file is a Debian package (` + "`ar t package.deb`" + `)
- Re-download the package, it may be truncated`,
	}

	signingFailedIssue = &Issue{
		id: SigningFailedId,
		mdMsg: `
# Signing failed!

ldid could not sign one of the binaries. The bundle may already be partially modified.

## Things you can try:
- Run again with ` + "`--verbose`" + ` to see the tool output
- Start over from the original .ipa`,
	}

	encryptedExecutableIssue = &Issue{
		id: EncryptedExecutableId,
		mdMsg: `
# The main executable is encrypted!

Apps downloaded from the App Store are encrypted (cryptid 1). Injected modules will
load, but the app will not start on devices that cannot decrypt it.

## Things you can try:
- Decrypt the app first and inject into the decrypted copy`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try:
- Check the syntax of your config.cue
- Print the defaults with ` + "`cyan config show`",
	}

	extrasMissingIssue = &Issue{
		id: ExtrasMissingId,
		mdMsg: `
# A bundled runtime is missing!

One of the injected libraries needs CydiaSubstrate, Orion or Cephei, and cyan could not
find the canonical copy in its extras directory.

## Things you can try:
- Reinstall cyan so that ` + "`extras/`" + ` sits next to the executable
- Inject the framework yourself with ` + "`-f`",
	}

	issues = map[Id]*Issue{
		invalidInputIssue.Id():        invalidInputIssue,
		moduleNotFoundIssue.Id():      moduleNotFoundIssue,
		invalidAppIssue.Id():          invalidAppIssue,
		toolNotFoundIssue.Id():        toolNotFoundIssue,
		extractionFailedIssue.Id():    extractionFailedIssue,
		signingFailedIssue.Id():       signingFailedIssue,
		encryptedExecutableIssue.Id(): encryptedExecutableIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		extrasMissingIssue.Id():       extrasMissingIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for v := range maps.Values(issues) {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
