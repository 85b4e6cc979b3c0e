package notion

// PropertyKind identifies the type tag of a page property. The set is closed:
// anything the API reports outside of it decodes to PropertyUnknown, which
// extracts to an empty value instead of failing the batch.
type PropertyKind int

const (
	PropertyUnknown PropertyKind = iota
	PropertyTitle
	PropertyRichText
	PropertyNumber
	PropertySelect
	PropertyMultiSelect
	PropertyDate
	PropertyCheckbox
	PropertyURL
	PropertyEmail
	PropertyPhone
)

var propertyKindTags = map[string]PropertyKind{
	"title":        PropertyTitle,
	"rich_text":    PropertyRichText,
	"number":       PropertyNumber,
	"select":       PropertySelect,
	"multi_select": PropertyMultiSelect,
	"date":         PropertyDate,
	"checkbox":     PropertyCheckbox,
	"url":          PropertyURL,
	"email":        PropertyEmail,
	"phone_number": PropertyPhone,
}

// ParsePropertyKind maps an API type tag to its kind. Unknown tags map to
// PropertyUnknown, never an error.
func ParsePropertyKind(tag string) PropertyKind {
	if kind, ok := propertyKindTags[tag]; ok {
		return kind
	}
	return PropertyUnknown
}

func (k PropertyKind) String() string {
	for tag, kind := range propertyKindTags {
		if kind == k {
			return tag
		}
	}
	return "unknown"
}

// TextRun is one element of a rich-text array. Only the flattened plain text
// survives conversion; annotations and hrefs are dropped.
type TextRun struct {
	PlainText string
}

// PropertyValue is a tagged union over PropertyKind. Only the fields matching
// Kind are meaningful; the rest stay zero.
type PropertyValue struct {
	Kind        PropertyKind
	Runs        []TextRun // title, rich_text
	Number      *float64  // number, nil when the cell is empty
	Select      string    // select
	MultiSelect []string  // multi_select
	DateStart   string    // date, ISO start string
	Checked     bool      // checkbox
	Text        string    // url, email, phone_number
}

// Property pairs a property name with its value. Pages carry properties as an
// ordered slice so output order matches the order the API returned them, which
// map iteration would not preserve.
type Property struct {
	Name  string
	Value PropertyValue
}

// Page is one record of a database. Immutable once fetched; Blocks are
// populated by a separate listing call and stay nil until then.
type Page struct {
	ID             string
	CreatedTime    string
	LastEditedTime string
	Properties     []Property
	Blocks         []Block
}

// Property returns the value for name and whether it exists.
func (p Page) Property(name string) (PropertyValue, bool) {
	for _, prop := range p.Properties {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return PropertyValue{}, false
}

// TitleProperty returns the name and value of the page's title property.
// At most one property per page has the title kind.
func (p Page) TitleProperty() (string, PropertyValue, bool) {
	for _, prop := range p.Properties {
		if prop.Value.Kind == PropertyTitle {
			return prop.Name, prop.Value, true
		}
	}
	return "", PropertyValue{}, false
}

// BlockKind identifies the type tag of a content block.
type BlockKind int

const (
	BlockUnknown BlockKind = iota
	BlockParagraph
	BlockHeading1
	BlockHeading2
	BlockHeading3
	BlockBulleted
	BlockNumbered
	BlockCode
	BlockQuote
)

var blockKindTags = map[string]BlockKind{
	"paragraph":          BlockParagraph,
	"heading_1":          BlockHeading1,
	"heading_2":          BlockHeading2,
	"heading_3":          BlockHeading3,
	"bulleted_list_item": BlockBulleted,
	"numbered_list_item": BlockNumbered,
	"code":               BlockCode,
	"quote":              BlockQuote,
}

// ParseBlockKind maps an API block type tag to its kind; unknown tags map to
// BlockUnknown.
func ParseBlockKind(tag string) BlockKind {
	if kind, ok := blockKindTags[tag]; ok {
		return kind
	}
	return BlockUnknown
}

// Block is one unit of a page's body. Blocks render in source order with no
// nesting; unknown kinds may still carry Runs and degrade to plain text.
type Block struct {
	Kind     BlockKind
	Runs     []TextRun
	Language string // code blocks only, may be empty
}

// DatabaseProperty is one declared column of a database schema.
type DatabaseProperty struct {
	Name string
	Kind PropertyKind
}

// Database is the batch-level metadata shared by every format strategy.
type Database struct {
	ID         string
	Title      string
	Properties []DatabaseProperty
}
