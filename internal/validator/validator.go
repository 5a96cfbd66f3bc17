// Package validator checks the shape of request payloads against JSON schemas.
package validator

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/xeipuuv/gojsonschema"

	"github.com/openmusic/openmusic/internal/apperror"
)

const playlistSchema = `{
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1}
	}
}`

const playlistSongSchema = `{
	"type": "object",
	"required": ["songId"],
	"additionalProperties": false,
	"properties": {
		"songId": {"type": "string", "minLength": 1}
	}
}`

// rootField is the field name gojsonschema reports for the document itself.
const rootField = "(root)"

// Validator validates playlist payloads. It is safe for concurrent use.
type Validator struct {
	playlist     *gojsonschema.Schema
	playlistSong *gojsonschema.Schema
}

// New compiles the payload schemas.
func New() (*Validator, error) {
	playlist, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(playlistSchema))
	if err != nil {
		return nil, fmt.Errorf("compile playlist schema: %w", err)
	}

	playlistSong, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(playlistSongSchema))
	if err != nil {
		return nil, fmt.Errorf("compile playlist song schema: %w", err)
	}

	return &Validator{
		playlist:     playlist,
		playlistSong: playlistSong,
	}, nil
}

// MustNew is like New but panics if a schema does not compile.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidatePlaylistPayload checks a create-playlist body: {"name": string}.
func (v *Validator) ValidatePlaylistPayload(body []byte) error {
	return validate(v.playlist, body)
}

// ValidatePlaylistSongPayload checks an add/remove-song body: {"songId": string}.
func (v *Validator) ValidatePlaylistSongPayload(body []byte) error {
	return validate(v.playlistSong, body)
}

func validate(schema *gojsonschema.Schema, body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return apperror.NewValidation("payload is required")
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		// gojsonschema fails before validating when the document is not JSON.
		return &apperror.Error{Kind: apperror.Validation, Message: "payload must be a valid JSON object", Err: err}
	}

	if res.Valid() {
		return nil
	}

	return apperror.NewValidation(firstMessage(res))
}

// firstMessage picks a deterministic message out of the schema errors.
func firstMessage(res *gojsonschema.Result) string {
	messages := make([]string, 0, len(res.Errors()))
	for _, resErr := range res.Errors() {
		messages = append(messages, newErrorMessage(resErr))
	}
	slices.SortFunc(messages, cmp.Compare[string])
	return messages[0]
}

func newErrorMessage(resErr gojsonschema.ResultError) string {
	switch resErr.(type) {
	case *gojsonschema.RequiredError:
		return fmt.Sprintf("%q is required", resErr.Details()["property"])
	case *gojsonschema.InvalidTypeError:
		if resErr.Field() == rootField {
			return "payload must be of type object"
		}
		return fmt.Sprintf("%q must be a %s", resErr.Field(), resErr.Details()["expected"])
	case *gojsonschema.StringLengthGTEError:
		return fmt.Sprintf("%q is not allowed to be empty", resErr.Field())
	case *gojsonschema.AdditionalPropertyNotAllowedError:
		return fmt.Sprintf("%q is not allowed", resErr.Details()["property"])
	default:
		return resErr.String()
	}
}
