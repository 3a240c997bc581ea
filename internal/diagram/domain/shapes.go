package domain

// Theme defaults carried over from the editor's canvas theme.
const (
	DefaultStroke        = "#abafae"
	DefaultStrokeWidth   = 1.0
	DefaultTextColor     = "#7e8d9f"
	DefaultTextFontSize  = 14.0
	DefaultFontFamily    = "Arial"
	DefaultEntityWidth   = 150.0
	DefaultEntityHeight  = 75.0
	DefaultRelationRad   = 70.0
	DefaultAttributeXRad = 60.0
	DefaultAttributeYRad = 40.0
	DefaultTextWidth     = 150.0
	DefaultTextHeight    = 30.0
)

// AttributeType distinguishes plain, multivalued and derived attributes.
type AttributeType string

const (
	AttributeNormal      AttributeType = "normal"
	AttributeMultivalued AttributeType = "multivalued"
	AttributeDerived     AttributeType = "derived"
)

func (t AttributeType) Valid() bool {
	return t == AttributeNormal || t == AttributeMultivalued || t == AttributeDerived
}

// Placement is the position and rotation shared by every non-connector item.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

var placementFields = []string{"x", "y", "rotation"}

func (p *Placement) get(field string) (any, bool) {
	switch field {
	case "x":
		return p.X, true
	case "y":
		return p.Y, true
	case "rotation":
		return p.Rotation, true
	}
	return nil, false
}

func (p *Placement) set(kind Kind, field string, v any) (bool, error) {
	switch field {
	case "x":
		return true, setFloat(&p.X, kind, field, v)
	case "y":
		return true, setFloat(&p.Y, kind, field, v)
	case "rotation":
		return true, setFloat(&p.Rotation, kind, field, v)
	}
	return false, nil
}

// ShapeStyle holds the label and presentation fields of entities, relations and attributes.
type ShapeStyle struct {
	Name        string  `json:"name"`
	NameColor   string  `json:"nameColor"`
	NameWidth   float64 `json:"nameWidth"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   string  `json:"fillColor"`
	FontFamily  string  `json:"fontFamily"`
	FontSize    float64 `json:"fontSize"`
	Bold        bool    `json:"bold"`
	Italic      bool    `json:"italic"`
	Underlined  bool    `json:"underlined"`
	TextVisible bool    `json:"textVisible"`
}

var styleFields = []string{
	"name", "nameColor", "nameWidth", "stroke", "strokeWidth", "fillColor",
	"fontFamily", "fontSize", "bold", "italic", "underlined", "textVisible",
}

func defaultStyle() ShapeStyle {
	return ShapeStyle{
		NameColor:   DefaultTextColor,
		Stroke:      DefaultStroke,
		StrokeWidth: DefaultStrokeWidth,
		FontFamily:  DefaultFontFamily,
		FontSize:    DefaultTextFontSize,
		TextVisible: true,
	}
}

func (s *ShapeStyle) get(field string) (any, bool) {
	switch field {
	case "name":
		return s.Name, true
	case "nameColor":
		return s.NameColor, true
	case "nameWidth":
		return s.NameWidth, true
	case "stroke":
		return s.Stroke, true
	case "strokeWidth":
		return s.StrokeWidth, true
	case "fillColor":
		return s.FillColor, true
	case "fontFamily":
		return s.FontFamily, true
	case "fontSize":
		return s.FontSize, true
	case "bold":
		return s.Bold, true
	case "italic":
		return s.Italic, true
	case "underlined":
		return s.Underlined, true
	case "textVisible":
		return s.TextVisible, true
	}
	return nil, false
}

func (s *ShapeStyle) set(kind Kind, field string, v any) (bool, error) {
	switch field {
	case "name":
		return true, setString(&s.Name, kind, field, v)
	case "nameColor":
		return true, setString(&s.NameColor, kind, field, v)
	case "nameWidth":
		return true, setFloat(&s.NameWidth, kind, field, v)
	case "stroke":
		return true, setString(&s.Stroke, kind, field, v)
	case "strokeWidth":
		return true, setFloat(&s.StrokeWidth, kind, field, v)
	case "fillColor":
		return true, setString(&s.FillColor, kind, field, v)
	case "fontFamily":
		return true, setString(&s.FontFamily, kind, field, v)
	case "fontSize":
		return true, setFloat(&s.FontSize, kind, field, v)
	case "bold":
		return true, setBool(&s.Bold, kind, field, v)
	case "italic":
		return true, setBool(&s.Italic, kind, field, v)
	case "underlined":
		return true, setBool(&s.Underlined, kind, field, v)
	case "textVisible":
		return true, setBool(&s.TextVisible, kind, field, v)
	}
	return false, nil
}

func fieldList(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Entity is a rectangle; weak entities draw a double border.
type Entity struct {
	ID string `json:"id"`
	Placement
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	WeakEntity bool    `json:"weakEntity"`
	ShapeStyle
}

var entityFields = fieldList([]string{"id"}, placementFields, []string{"width", "height", "weakEntity"}, styleFields)

func NewEntity(id string, x, y float64) *Entity {
	return &Entity{
		ID:         id,
		Placement:  Placement{X: x, Y: y},
		Width:      DefaultEntityWidth,
		Height:     DefaultEntityHeight,
		ShapeStyle: defaultStyle(),
	}
}

func (e *Entity) ItemID() string   { return e.ID }
func (e *Entity) Kind() Kind       { return KindEntity }
func (e *Entity) Fields() []string { return entityFields }
func (e *Entity) shape()           {}

func (e *Entity) Clone() Shape {
	c := *e
	return &c
}

func (e *Entity) Get(field string) (any, error) {
	switch field {
	case "id":
		return e.ID, nil
	case "width":
		return e.Width, nil
	case "height":
		return e.Height, nil
	case "weakEntity":
		return e.WeakEntity, nil
	}
	if v, ok := e.Placement.get(field); ok {
		return v, nil
	}
	if v, ok := e.ShapeStyle.get(field); ok {
		return v, nil
	}
	return nil, unknownFieldError(KindEntity, field)
}

func (e *Entity) Set(field string, v any) error {
	switch field {
	case "id":
		return immutableFieldError(KindEntity, field)
	case "width":
		return setFloat(&e.Width, KindEntity, field, v)
	case "height":
		return setFloat(&e.Height, KindEntity, field, v)
	case "weakEntity":
		return setBool(&e.WeakEntity, KindEntity, field, v)
	}
	if ok, err := e.Placement.set(KindEntity, field, v); ok {
		return err
	}
	if ok, err := e.ShapeStyle.set(KindEntity, field, v); ok {
		return err
	}
	return unknownFieldError(KindEntity, field)
}

// Relation is a diamond; identifying relations connect weak entities.
type Relation struct {
	ID string `json:"id"`
	Placement
	Radius      float64 `json:"radius"`
	Identifying bool    `json:"identifying"`
	ShapeStyle
}

var relationFields = fieldList([]string{"id"}, placementFields, []string{"radius", "identifying"}, styleFields)

func NewRelation(id string, x, y float64) *Relation {
	return &Relation{
		ID:         id,
		Placement:  Placement{X: x, Y: y},
		Radius:     DefaultRelationRad,
		ShapeStyle: defaultStyle(),
	}
}

func (r *Relation) ItemID() string   { return r.ID }
func (r *Relation) Kind() Kind       { return KindRelation }
func (r *Relation) Fields() []string { return relationFields }
func (r *Relation) shape()           {}

func (r *Relation) Clone() Shape {
	c := *r
	return &c
}

func (r *Relation) Get(field string) (any, error) {
	switch field {
	case "id":
		return r.ID, nil
	case "radius":
		return r.Radius, nil
	case "identifying":
		return r.Identifying, nil
	}
	if v, ok := r.Placement.get(field); ok {
		return v, nil
	}
	if v, ok := r.ShapeStyle.get(field); ok {
		return v, nil
	}
	return nil, unknownFieldError(KindRelation, field)
}

func (r *Relation) Set(field string, v any) error {
	switch field {
	case "id":
		return immutableFieldError(KindRelation, field)
	case "radius":
		return setFloat(&r.Radius, KindRelation, field, v)
	case "identifying":
		return setBool(&r.Identifying, KindRelation, field, v)
	}
	if ok, err := r.Placement.set(KindRelation, field, v); ok {
		return err
	}
	if ok, err := r.ShapeStyle.set(KindRelation, field, v); ok {
		return err
	}
	return unknownFieldError(KindRelation, field)
}

// Attribute is an ellipse hanging off an entity or relation.
type Attribute struct {
	ID string `json:"id"`
	Placement
	XRadius float64       `json:"xRadius"`
	YRadius float64       `json:"yRadius"`
	Type    AttributeType `json:"type"`
	ShapeStyle
}

var attributeFields = fieldList([]string{"id"}, placementFields, []string{"xRadius", "yRadius", "type"}, styleFields)

func NewAttribute(id string, x, y float64) *Attribute {
	return &Attribute{
		ID:         id,
		Placement:  Placement{X: x, Y: y},
		XRadius:    DefaultAttributeXRad,
		YRadius:    DefaultAttributeYRad,
		Type:       AttributeNormal,
		ShapeStyle: defaultStyle(),
	}
}

func (a *Attribute) ItemID() string   { return a.ID }
func (a *Attribute) Kind() Kind       { return KindAttribute }
func (a *Attribute) Fields() []string { return attributeFields }
func (a *Attribute) shape()           {}

func (a *Attribute) Clone() Shape {
	c := *a
	return &c
}

func (a *Attribute) Get(field string) (any, error) {
	switch field {
	case "id":
		return a.ID, nil
	case "xRadius":
		return a.XRadius, nil
	case "yRadius":
		return a.YRadius, nil
	case "type":
		return string(a.Type), nil
	}
	if v, ok := a.Placement.get(field); ok {
		return v, nil
	}
	if v, ok := a.ShapeStyle.get(field); ok {
		return v, nil
	}
	return nil, unknownFieldError(KindAttribute, field)
}

func (a *Attribute) Set(field string, v any) error {
	switch field {
	case "id":
		return immutableFieldError(KindAttribute, field)
	case "xRadius":
		return setFloat(&a.XRadius, KindAttribute, field, v)
	case "yRadius":
		return setFloat(&a.YRadius, KindAttribute, field, v)
	case "type":
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case AttributeType:
			s = string(t)
		default:
			return fieldTypeError(KindAttribute, field, "attribute type", v)
		}
		if !AttributeType(s).Valid() {
			return fieldTypeError(KindAttribute, field, "normal, multivalued or derived", s)
		}
		a.Type = AttributeType(s)
		return nil
	}
	if ok, err := a.Placement.set(KindAttribute, field, v); ok {
		return err
	}
	if ok, err := a.ShapeStyle.set(KindAttribute, field, v); ok {
		return err
	}
	return unknownFieldError(KindAttribute, field)
}

// Connector is a line between two anchor points.
type Connector struct {
	ID          string    `json:"id"`
	Points      []float64 `json:"points"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`
}

var connectorFields = []string{"id", "points", "stroke", "strokeWidth"}

// NewConnector seeds a connector at its anchor; points holds only the start coordinates.
func NewConnector(id string, anchorX, anchorY float64) *Connector {
	return &Connector{
		ID:          id,
		Points:      []float64{anchorX, anchorY},
		Stroke:      DefaultStroke,
		StrokeWidth: DefaultStrokeWidth,
	}
}

func (c *Connector) ItemID() string   { return c.ID }
func (c *Connector) Kind() Kind       { return KindConnector }
func (c *Connector) Fields() []string { return connectorFields }
func (c *Connector) shape()           {}

func (c *Connector) Clone() Shape {
	cp := *c
	cp.Points = append([]float64(nil), c.Points...)
	return &cp
}

// Anchored reports whether the connector is still being drawn.
func (c *Connector) Anchored() bool {
	return len(c.Points) == 2
}

func (c *Connector) Get(field string) (any, error) {
	switch field {
	case "id":
		return c.ID, nil
	case "points":
		return append([]float64(nil), c.Points...), nil
	case "stroke":
		return c.Stroke, nil
	case "strokeWidth":
		return c.StrokeWidth, nil
	}
	return nil, unknownFieldError(KindConnector, field)
}

func (c *Connector) Set(field string, v any) error {
	switch field {
	case "id":
		return immutableFieldError(KindConnector, field)
	case "points":
		pts, ok := toPoints(v)
		if !ok {
			return fieldTypeError(KindConnector, field, "even list of numbers", v)
		}
		c.Points = pts
		return nil
	case "stroke":
		return setString(&c.Stroke, KindConnector, field, v)
	case "strokeWidth":
		return setFloat(&c.StrokeWidth, KindConnector, field, v)
	}
	return unknownFieldError(KindConnector, field)
}

// Text is a free-standing label placed with a canvas double-click.
type Text struct {
	ID string `json:"id"`
	Placement
	Name        string  `json:"name"`
	Fill        string  `json:"fill"`
	Bold        bool    `json:"bold"`
	Italic      bool    `json:"italic"`
	Underlined  bool    `json:"underlined"`
	FontFamily  string  `json:"fontFamily"`
	FontSize    float64 `json:"fontSize"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	TextVisible bool    `json:"textVisible"`
}

var textFields = fieldList([]string{"id"}, placementFields, []string{
	"name", "fill", "bold", "italic", "underlined", "fontFamily", "fontSize", "width", "height", "textVisible",
})

func NewText(id string, x, y float64, name string) *Text {
	return &Text{
		ID:          id,
		Placement:   Placement{X: x, Y: y},
		Name:        name,
		Fill:        DefaultTextColor,
		FontFamily:  DefaultFontFamily,
		FontSize:    DefaultTextFontSize,
		Width:       DefaultTextWidth,
		Height:      DefaultTextHeight,
		TextVisible: true,
	}
}

func (t *Text) ItemID() string   { return t.ID }
func (t *Text) Kind() Kind       { return KindText }
func (t *Text) Fields() []string { return textFields }
func (t *Text) shape()           {}

func (t *Text) Clone() Shape {
	c := *t
	return &c
}

func (t *Text) Get(field string) (any, error) {
	switch field {
	case "id":
		return t.ID, nil
	case "name":
		return t.Name, nil
	case "fill":
		return t.Fill, nil
	case "bold":
		return t.Bold, nil
	case "italic":
		return t.Italic, nil
	case "underlined":
		return t.Underlined, nil
	case "fontFamily":
		return t.FontFamily, nil
	case "fontSize":
		return t.FontSize, nil
	case "width":
		return t.Width, nil
	case "height":
		return t.Height, nil
	case "textVisible":
		return t.TextVisible, nil
	}
	if v, ok := t.Placement.get(field); ok {
		return v, nil
	}
	return nil, unknownFieldError(KindText, field)
}

func (t *Text) Set(field string, v any) error {
	switch field {
	case "id":
		return immutableFieldError(KindText, field)
	case "name":
		return setString(&t.Name, KindText, field, v)
	case "fill":
		return setString(&t.Fill, KindText, field, v)
	case "bold":
		return setBool(&t.Bold, KindText, field, v)
	case "italic":
		return setBool(&t.Italic, KindText, field, v)
	case "underlined":
		return setBool(&t.Underlined, KindText, field, v)
	case "fontFamily":
		return setString(&t.FontFamily, KindText, field, v)
	case "fontSize":
		return setFloat(&t.FontSize, KindText, field, v)
	case "width":
		return setFloat(&t.Width, KindText, field, v)
	case "height":
		return setFloat(&t.Height, KindText, field, v)
	case "textVisible":
		return setBool(&t.TextVisible, KindText, field, v)
	}
	if ok, err := t.Placement.set(KindText, field, v); ok {
		return err
	}
	return unknownFieldError(KindText, field)
}
