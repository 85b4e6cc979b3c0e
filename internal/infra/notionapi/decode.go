package notionapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
)

type runPayload struct {
	PlainText string `json:"plain_text"`
}

type optionPayload struct {
	Name string `json:"name"`
}

type datePayload struct {
	Start string `json:"start"`
}

type propertyPayload struct {
	Type        string          `json:"type"`
	Title       []runPayload    `json:"title"`
	RichText    []runPayload    `json:"rich_text"`
	Number      *float64        `json:"number"`
	Select      *optionPayload  `json:"select"`
	MultiSelect []optionPayload `json:"multi_select"`
	Date        *datePayload    `json:"date"`
	Checkbox    bool            `json:"checkbox"`
	URL         string          `json:"url"`
	Email       string          `json:"email"`
	PhoneNumber string          `json:"phone_number"`
}

type pagePayload struct {
	ID             string          `json:"id"`
	CreatedTime    string          `json:"created_time"`
	LastEditedTime string          `json:"last_edited_time"`
	Properties     json.RawMessage `json:"properties"`
}

type databasePayload struct {
	ID         string          `json:"id"`
	Title      []runPayload    `json:"title"`
	Properties json.RawMessage `json:"properties"`
}

func decodePage(raw json.RawMessage) (notiondomain.Page, error) {
	var payload pagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return notiondomain.Page{}, err
	}
	properties, err := decodeProperties(payload.Properties)
	if err != nil {
		return notiondomain.Page{}, err
	}
	return notiondomain.Page{
		ID:             payload.ID,
		CreatedTime:    payload.CreatedTime,
		LastEditedTime: payload.LastEditedTime,
		Properties:     properties,
	}, nil
}

// decodeProperties walks the properties object token by token so the slice
// keeps the API's key order. json.Unmarshal into a map would lose it.
func decodeProperties(raw json.RawMessage) ([]notiondomain.Property, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("properties: expected object, got %v", tok)
	}

	var out []notiondomain.Property
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("properties: expected key, got %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		decoded, err := decodePropertyValue(value)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		out = append(out, notiondomain.Property{Name: name, Value: decoded})
	}
	return out, nil
}

func decodePropertyValue(raw json.RawMessage) (notiondomain.PropertyValue, error) {
	var payload propertyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return notiondomain.PropertyValue{}, err
	}

	value := notiondomain.PropertyValue{Kind: notiondomain.ParsePropertyKind(payload.Type)}
	switch value.Kind {
	case notiondomain.PropertyTitle:
		value.Runs = toRuns(payload.Title)
	case notiondomain.PropertyRichText:
		value.Runs = toRuns(payload.RichText)
	case notiondomain.PropertyNumber:
		value.Number = payload.Number
	case notiondomain.PropertySelect:
		if payload.Select != nil {
			value.Select = payload.Select.Name
		}
	case notiondomain.PropertyMultiSelect:
		for _, option := range payload.MultiSelect {
			value.MultiSelect = append(value.MultiSelect, option.Name)
		}
	case notiondomain.PropertyDate:
		if payload.Date != nil {
			value.DateStart = payload.Date.Start
		}
	case notiondomain.PropertyCheckbox:
		value.Checked = payload.Checkbox
	case notiondomain.PropertyURL:
		value.Text = payload.URL
	case notiondomain.PropertyEmail:
		value.Text = payload.Email
	case notiondomain.PropertyPhone:
		value.Text = payload.PhoneNumber
	}
	return value, nil
}

// decodeBlock reads the block's content from the sub-object keyed by its type
// tag. Runs live under rich_text for every text-bearing kind, known or not,
// which is what lets unrecognized kinds degrade to plain paragraphs.
func decodeBlock(raw json.RawMessage) (notiondomain.Block, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return notiondomain.Block{}, err
	}
	var typeTag string
	if rawType, ok := envelope["type"]; ok {
		if err := json.Unmarshal(rawType, &typeTag); err != nil {
			return notiondomain.Block{}, fmt.Errorf("block type: %w", err)
		}
	}

	block := notiondomain.Block{Kind: notiondomain.ParseBlockKind(typeTag)}
	content, ok := envelope[typeTag]
	if !ok {
		return block, nil
	}

	var holder struct {
		RichText []runPayload `json:"rich_text"`
		Language string       `json:"language"`
	}
	if err := json.Unmarshal(content, &holder); err != nil {
		return notiondomain.Block{}, fmt.Errorf("block content %s: %w", typeTag, err)
	}
	block.Runs = toRuns(holder.RichText)
	if block.Kind == notiondomain.BlockCode {
		block.Language = holder.Language
	}
	return block, nil
}

func decodeDatabase(raw json.RawMessage) (notiondomain.Database, error) {
	var payload databasePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return notiondomain.Database{}, err
	}

	db := notiondomain.Database{ID: payload.ID}
	db.Title = joinRunPayloads(payload.Title)

	if len(payload.Properties) > 0 {
		dec := json.NewDecoder(bytes.NewReader(payload.Properties))
		tok, err := dec.Token()
		if err != nil {
			return notiondomain.Database{}, err
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return notiondomain.Database{}, fmt.Errorf("database properties: expected object, got %v", tok)
		}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return notiondomain.Database{}, err
			}
			name, ok := keyTok.(string)
			if !ok {
				return notiondomain.Database{}, fmt.Errorf("database properties: expected key, got %v", keyTok)
			}
			var schema struct {
				Type string `json:"type"`
			}
			if err := dec.Decode(&schema); err != nil {
				return notiondomain.Database{}, fmt.Errorf("database property %s: %w", name, err)
			}
			db.Properties = append(db.Properties, notiondomain.DatabaseProperty{
				Name: name,
				Kind: notiondomain.ParsePropertyKind(schema.Type),
			})
		}
	}
	return db, nil
}

func toRuns(payloads []runPayload) []notiondomain.TextRun {
	if len(payloads) == 0 {
		return nil
	}
	runs := make([]notiondomain.TextRun, 0, len(payloads))
	for _, payload := range payloads {
		runs = append(runs, notiondomain.TextRun{PlainText: payload.PlainText})
	}
	return runs
}

func joinRunPayloads(payloads []runPayload) string {
	var out string
	for _, payload := range payloads {
		out += payload.PlainText
	}
	return out
}
