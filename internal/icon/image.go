package icon

// Offset is a pixel offset relative to the top-left corner of an image.
type Offset struct {
	X int `json:"x" yaml:"x" doc:"Horizontal offset in pixels"`
	Y int `json:"y" yaml:"y" doc:"Vertical offset in pixels"`
}

// ImageStyle configures a custom image marker. Sizes are used only when both
// dimensions are set; a nil anchor keeps Leaflet's default.
type ImageStyle struct {
	URL          string  `json:"url,omitempty" yaml:"url" doc:"Marker image URL"`
	Width        int     `json:"width,omitempty" yaml:"width" minimum:"0" maximum:"100" doc:"Image width in pixels"`
	Height       int     `json:"height,omitempty" yaml:"height" minimum:"0" maximum:"100" doc:"Image height in pixels"`
	Anchor       *Offset `json:"anchor,omitempty" yaml:"anchor" doc:"Image point placed on the coordinate"`
	ShadowURL    string  `json:"shadowUrl,omitempty" yaml:"shadowUrl" doc:"Shadow image URL"`
	ShadowWidth  int     `json:"shadowWidth,omitempty" yaml:"shadowWidth" minimum:"0" maximum:"100" doc:"Shadow width in pixels"`
	ShadowHeight int     `json:"shadowHeight,omitempty" yaml:"shadowHeight" minimum:"0" maximum:"100" doc:"Shadow height in pixels"`
	ShadowAnchor *Offset `json:"shadowAnchor,omitempty" yaml:"shadowAnchor" doc:"Shadow point placed on the coordinate"`
	PopupAnchor  *Offset `json:"popupAnchor,omitempty" yaml:"popupAnchor" doc:"Popup opening point relative to the anchor"`
}

// ImageOptions are the L.icon options for a custom image marker.
type ImageOptions struct {
	IconURL      string `json:"iconUrl"`
	ShadowURL    string `json:"shadowUrl,omitempty"`
	IconSize     []int  `json:"iconSize,omitempty"`
	ShadowSize   []int  `json:"shadowSize,omitempty"`
	IconAnchor   []int  `json:"iconAnchor,omitempty"`
	ShadowAnchor []int  `json:"shadowAnchor,omitempty"`
	PopupAnchor  []int  `json:"popupAnchor,omitempty"`
}

// Image builds L.icon options. ok is false when no image URL is set, in
// which case the map falls back to Leaflet's default marker.
func Image(s ImageStyle) (opts ImageOptions, ok bool) {
	if s.URL == "" {
		return ImageOptions{}, false
	}

	opts = ImageOptions{IconURL: s.URL, ShadowURL: s.ShadowURL}
	if s.Width > 0 && s.Height > 0 {
		opts.IconSize = []int{s.Width, s.Height}
	}
	if s.ShadowWidth > 0 && s.ShadowHeight > 0 {
		opts.ShadowSize = []int{s.ShadowWidth, s.ShadowHeight}
	}
	if s.Anchor != nil {
		opts.IconAnchor = []int{s.Anchor.X, s.Anchor.Y}
	}
	if s.ShadowAnchor != nil {
		opts.ShadowAnchor = []int{s.ShadowAnchor.X, s.ShadowAnchor.Y}
	}
	if s.PopupAnchor != nil {
		opts.PopupAnchor = []int{s.PopupAnchor.X, s.PopupAnchor.Y}
	}
	return opts, true
}
