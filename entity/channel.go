package entity

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// MaxChannelNameLength bounds the channel name as stored and validated.
const MaxChannelNameLength = 100

// Channel is a named pipeline instance: one source, an ordered filter chain,
// an ordered transformer chain and one or more destinations.
// The id is stable and immutable once assigned; the name is unique system-wide.
// A Channel value handed to the processor is an immutable snapshot taken at
// admission time, so concurrent config updates never affect an in-flight run.
type Channel struct {
	Id          string
	Name        string
	Description string
	Enabled     bool

	Source       SourceConfig
	Filters      []FilterConfig
	Transformers []TransformerConfig
	Destinations []DestinationConfig

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewChannel creates a Channel from its JSON wire form, validating the raw
// document against the channel JSON schema before decoding the config unions.
// Structural and uniqueness validation beyond the schema is the Validator's job.
func NewChannel(channelData []byte) (*Channel, error) {
	if len(channelData) == 0 {
		return nil, errors.New("no channel data provided")
	}

	if err := validateRawJson(channelData); err != nil {
		return nil, err
	}

	var channel Channel
	err := json.Unmarshal(channelData, &channel)
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

// channelWire is the persisted/wire form of a Channel. The config unions
// serialize as JSON objects with an explicit "type" discriminator.
// Enabled is a pointer to tell "omitted" apart from "false": a definition
// that leaves it out gets an enabled channel.
type channelWire struct {
	Id           string            `json:"id,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Enabled      *bool             `json:"enabled"`
	Source       json.RawMessage   `json:"source"`
	Filters      []json.RawMessage `json:"filters,omitempty"`
	Transformers []json.RawMessage `json:"transformers,omitempty"`
	Destinations []json.RawMessage `json:"destinations"`
	CreatedAt    *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time        `json:"updatedAt,omitempty"`
}

func (c *Channel) UnmarshalJSON(data []byte) error {
	var wire channelWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.Id = wire.Id
	c.Name = wire.Name
	c.Description = wire.Description
	c.Enabled = wire.Enabled == nil || *wire.Enabled
	if wire.CreatedAt != nil {
		c.CreatedAt = *wire.CreatedAt
	}
	if wire.UpdatedAt != nil {
		c.UpdatedAt = *wire.UpdatedAt
	}

	if len(wire.Source) > 0 {
		source, err := UnmarshalSourceConfig(wire.Source)
		if err != nil {
			return err
		}
		c.Source = source
	}

	c.Filters = nil
	for _, raw := range wire.Filters {
		filter, err := UnmarshalFilterConfig(raw)
		if err != nil {
			return err
		}
		c.Filters = append(c.Filters, filter)
	}

	c.Transformers = nil
	for _, raw := range wire.Transformers {
		transformer, err := UnmarshalTransformerConfig(raw)
		if err != nil {
			return err
		}
		c.Transformers = append(c.Transformers, transformer)
	}

	c.Destinations = nil
	for _, raw := range wire.Destinations {
		destination, err := UnmarshalDestinationConfig(raw)
		if err != nil {
			return err
		}
		c.Destinations = append(c.Destinations, destination)
	}

	return nil
}

func (c Channel) MarshalJSON() ([]byte, error) {
	enabled := c.Enabled
	wire := channelWire{
		Id:          c.Id,
		Name:        c.Name,
		Description: c.Description,
		Enabled:     &enabled,
	}
	if !c.CreatedAt.IsZero() {
		t := c.CreatedAt
		wire.CreatedAt = &t
	}
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		wire.UpdatedAt = &t
	}

	if c.Source != nil {
		raw, err := MarshalSourceConfig(c.Source)
		if err != nil {
			return nil, err
		}
		wire.Source = raw
	}
	for _, filter := range c.Filters {
		raw, err := MarshalFilterConfig(filter)
		if err != nil {
			return nil, err
		}
		wire.Filters = append(wire.Filters, raw)
	}
	for _, transformer := range c.Transformers {
		raw, err := MarshalTransformerConfig(transformer)
		if err != nil {
			return nil, err
		}
		wire.Transformers = append(wire.Transformers, raw)
	}
	for _, destination := range c.Destinations {
		raw, err := MarshalDestinationConfig(destination)
		if err != nil {
			return nil, err
		}
		wire.Destinations = append(wire.Destinations, raw)
	}

	return json.Marshal(wire)
}

// JSON returns the channel's wire form.
func (c Channel) JSON() []byte {
	channelData, _ := json.Marshal(c)
	return channelData
}

// Copy returns a deep copy of the channel. The store hands out copies so that
// in-flight runs keep their snapshot regardless of later updates.
func (c Channel) Copy() *Channel {
	snapshot := c

	snapshot.Filters = append([]FilterConfig(nil), c.Filters...)
	snapshot.Transformers = append([]TransformerConfig(nil), c.Transformers...)
	snapshot.Destinations = append([]DestinationConfig(nil), c.Destinations...)

	// HTTPDestination is the only variant holding reference types
	for i, destination := range snapshot.Destinations {
		if d, ok := destination.(HTTPDestination); ok && d.Headers != nil {
			headers := make(map[string]string, len(d.Headers))
			for k, v := range d.Headers {
				headers[k] = v
			}
			d.Headers = headers
			snapshot.Destinations[i] = d
		}
	}
	return &snapshot
}

func validateRawJson(channelData []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(channelSchema)
	documentLoader := gojsonschema.NewBytesLoader(channelData)
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		channelErrors := ""
		for _, desc := range result.Errors() {
			channelErrors += " - " + desc.String()
		}
		err = errors.New(channelErrors)
	}
	return err
}

// Channel wire-form schema with the most important structural checks.
// Per-variant field validation is handled by each config's Validate().
var channelSchema = []byte(`
{
  "$schema": "http://json-schema.org/draft-07/schema",
  "type": "object",
  "required": [
    "name",
    "source",
    "destinations"
  ],
  "properties": {
    "id": {
      "type": "string"
    },
    "name": {
      "type": "string",
      "minLength": 1,
      "maxLength": 100
    },
    "description": {
      "type": "string"
    },
    "enabled": {
      "type": "boolean"
    },
    "source": {
      "$ref": "#/$defs/taggedConfig"
    },
    "filters": {
      "type": "array",
      "items": {
        "$ref": "#/$defs/taggedConfig"
      }
    },
    "transformers": {
      "type": "array",
      "items": {
        "$ref": "#/$defs/taggedConfig"
      }
    },
    "destinations": {
      "type": "array",
      "minItems": 1,
      "items": {
        "$ref": "#/$defs/taggedConfig"
      }
    },
    "createdAt": {
      "type": "string"
    },
    "updatedAt": {
      "type": "string"
    }
  },
  "additionalProperties": false,
  "$defs": {
    "taggedConfig": {
      "type": "object",
      "required": [
        "type"
      ],
      "properties": {
        "type": {
          "type": "string",
          "minLength": 1
        }
      }
    }
  }
}
`)
