package entity

// Vec3 is a three-component vector.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// Identity gives an entity its unique id. At most one entity may hold a
// given id at a time; the id index enforces first-registration-wins.
type Identity struct {
	Id string
}

// Tags lists the entity's tag names. Names are normalized to lowercase by
// the tag index at registration.
type Tags struct {
	Names []string
}

// Transform is the spatial behavior.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// Properties holds scalar key/value pairs. Values are restricted to
// float64, bool, and string; arrays and nested objects are not property
// values.
type Properties struct {
	Values map[string]any
}

// Parent links an entity to its parent by index.
type Parent struct {
	Target Index
}

// LayoutDirection is the layout main-axis enum.
type LayoutDirection string

const (
	DirectionRow    LayoutDirection = "row"
	DirectionColumn LayoutDirection = "column"
)

// LayoutJustify is the main-axis distribution enum.
type LayoutJustify string

const (
	JustifyStart        LayoutJustify = "start"
	JustifyCenter       LayoutJustify = "center"
	JustifyEnd          LayoutJustify = "end"
	JustifySpaceBetween LayoutJustify = "spaceBetween"
)

// LayoutAlign is the cross-axis alignment enum.
type LayoutAlign string

const (
	AlignStart   LayoutAlign = "start"
	AlignCenter  LayoutAlign = "center"
	AlignEnd     LayoutAlign = "end"
	AlignStretch LayoutAlign = "stretch"
)

// LayoutDisplay toggles an entity in and out of layout.
type LayoutDisplay string

const (
	DisplayFlex LayoutDisplay = "flex"
	DisplayNone LayoutDisplay = "none"
)

// Valid reports enum membership; the empty value is valid and means unset.
func (d LayoutDirection) Valid() bool {
	return d == "" || d == DirectionRow || d == DirectionColumn
}

func (j LayoutJustify) Valid() bool {
	return j == "" || j == JustifyStart || j == JustifyCenter || j == JustifyEnd || j == JustifySpaceBetween
}

func (a LayoutAlign) Valid() bool {
	return a == "" || a == AlignStart || a == AlignCenter || a == AlignEnd || a == AlignStretch
}

func (d LayoutDisplay) Valid() bool {
	return d == "" || d == DisplayFlex || d == DisplayNone
}

// Layout carries the discrete layout scalars and enums the layout engine
// reads. Computed output fields live on the layout engine's side, not here,
// so everything in this record is writable.
type Layout struct {
	Width         float64 `json:"width,omitempty"`
	Height        float64 `json:"height,omitempty"`
	MinWidth      float64 `json:"minWidth,omitempty"`
	MinHeight     float64 `json:"minHeight,omitempty"`
	MaxWidth      float64 `json:"maxWidth,omitempty"`
	MaxHeight     float64 `json:"maxHeight,omitempty"`
	FlexGrow      float64 `json:"flexGrow,omitempty"`
	FlexShrink    float64 `json:"flexShrink,omitempty"`
	FlexBasis     float64 `json:"flexBasis,omitempty"`
	Gap           float64 `json:"gap,omitempty"`
	PaddingLeft   float64 `json:"paddingLeft,omitempty"`
	PaddingRight  float64 `json:"paddingRight,omitempty"`
	PaddingTop    float64 `json:"paddingTop,omitempty"`
	PaddingBottom float64 `json:"paddingBottom,omitempty"`
	MarginLeft    float64 `json:"marginLeft,omitempty"`
	MarginRight   float64 `json:"marginRight,omitempty"`
	MarginTop     float64 `json:"marginTop,omitempty"`
	MarginBottom  float64 `json:"marginBottom,omitempty"`

	Direction LayoutDirection `json:"direction,omitempty"`
	Justify   LayoutJustify   `json:"justify,omitempty"`
	Align     LayoutAlign     `json:"align,omitempty"`
	Display   LayoutDisplay   `json:"display,omitempty"`
}

// RegisterCoreBehaviors registers every behavior type the engine knows how
// to select against and mutate.
func RegisterCoreBehaviors(s *Store) {
	RegisterBehavior[Identity](s)
	RegisterBehavior[Tags](s)
	RegisterBehavior[Transform](s)
	RegisterBehavior[Properties](s)
	RegisterBehavior[Parent](s)
	RegisterBehavior[Layout](s)
}
