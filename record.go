package sqlscript

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const SCRIPT_FILE_EXT = ".sql"

// Body is the storage location of a script's SQL text: either embedded in the
// metadata itself or a reference to a file on disk.
type Body interface {
	isBody()
}

// InlineBody carries the script text directly inside the metadata record.
type InlineBody struct {
	Text string
}

// FileRef points to a file whose full contents are the script body verbatim.
// The path is relative to the scripts directory.
type FileRef struct {
	Path string
}

func (InlineBody) isBody() {}
func (FileRef) isBody()    {}

// ScriptRecord is a single cataloged SQL script. Name is the unique lookup
// key, Category groups records for bulk search.
type ScriptRecord struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Body        Body      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// bodyEnvelope is the persisted form of the Body variant. The kind
// discriminator keeps deserialization exhaustive.
type bodyEnvelope struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	Path string `json:"path,omitempty"`
}

const (
	bodyKindInline = "inline"
	bodyKindFile   = "file"
)

type recordAlias ScriptRecord

type recordJSON struct {
	recordAlias
	BodyLocation bodyEnvelope `json:"body_location"`
}

func (r ScriptRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{recordAlias: recordAlias(r)}

	switch b := r.Body.(type) {
	case InlineBody:
		out.BodyLocation = bodyEnvelope{Kind: bodyKindInline, Text: b.Text}
	case FileRef:
		out.BodyLocation = bodyEnvelope{Kind: bodyKindFile, Path: b.Path}
	default:
		return nil, fmt.Errorf("script %s has no body location", r.Name)
	}

	return json.Marshal(out)
}

func (r *ScriptRecord) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = ScriptRecord(in.recordAlias)

	switch in.BodyLocation.Kind {
	case bodyKindInline:
		r.Body = InlineBody{Text: in.BodyLocation.Text}
	case bodyKindFile:
		r.Body = FileRef{Path: in.BodyLocation.Path}
	default:
		return fmt.Errorf("script %s has unknown body location kind %q", r.Name, in.BodyLocation.Kind)
	}

	return nil
}

// Clone returns a copy of the record. The index hands out clones so that
// records are only ever mutated through its own operations.
func (r *ScriptRecord) Clone() *ScriptRecord {
	c := *r
	return &c
}

// Slugify turns a script name into a filename component: lowercased, spaces
// replaced with underscores.
func Slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// BodyPath derives the storage path of a file-backed body from the record's
// category and name. The derivation is deterministic so the same record
// always maps to the same file.
func BodyPath(category, name string) string {
	return filepath.Join(category, Slugify(name)+SCRIPT_FILE_EXT)
}
