package manifest

import (
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"dashpress/internal/engine"
)

// The MPD is deterministic: same descriptor, same bytes. No publish-time
// stamps are embedded, so re-running a job produces byte-identical output.

type mpdXML struct {
	XMLName                   xml.Name  `xml:"MPD"`
	XMLNS                     string    `xml:"xmlns,attr"`
	Profiles                  string    `xml:"profiles,attr"`
	Type                      string    `xml:"type,attr"`
	MediaPresentationDuration string    `xml:"mediaPresentationDuration,attr"`
	MinBufferTime             string    `xml:"minBufferTime,attr"`
	Period                    periodXML `xml:"Period"`
}

type periodXML struct {
	ID             string             `xml:"id,attr"`
	Duration       string             `xml:"duration,attr"`
	AdaptationSets []adaptationSetXML `xml:"AdaptationSet"`
}

type adaptationSetXML struct {
	ID               string              `xml:"id,attr"`
	ContentType      string              `xml:"contentType,attr"`
	MimeType         string              `xml:"mimeType,attr"`
	SegmentAlignment bool                `xml:"segmentAlignment,attr"`
	Representations  []representationXML `xml:"Representation"`
}

type representationXML struct {
	ID              string             `xml:"id,attr"`
	Bandwidth       int                `xml:"bandwidth,attr"`
	Width           int                `xml:"width,attr,omitempty"`
	Height          int                `xml:"height,attr,omitempty"`
	SegmentTemplate segmentTemplateXML `xml:"SegmentTemplate"`
}

type segmentTemplateXML struct {
	Timescale      int    `xml:"timescale,attr"`
	Duration       int    `xml:"duration,attr"`
	Initialization string `xml:"initialization,attr"`
	Media          string `xml:"media,attr"`
	StartNumber    int    `xml:"startNumber,attr"`
}

// MarshalMPD renders the manifest document bytes. Each rendition contributes
// a video and an audio representation; segment references are literal object
// names (with a $Number$ placeholder) matching what the encoder produced.
func MarshalMPD(desc Descriptor) ([]byte, error) {
	const timescale = 1000

	videoReps := make([]representationXML, 0, len(desc.Renditions))
	audioReps := make([]representationXML, 0, len(desc.Renditions))
	for _, rend := range desc.Renditions {
		videoReps = append(videoReps, representationXML{
			ID:        representationID(rend.Spec.ID, engine.StreamVideo),
			Bandwidth: rend.Spec.VideoBitrateKbps * 1000,
			Width:     rend.Spec.Width,
			Height:    rend.Spec.Height,
			SegmentTemplate: segmentTemplateXML{
				Timescale:      timescale,
				Duration:       desc.SegmentSeconds * timescale,
				Initialization: rend.Video.InitName(),
				Media:          engine.MediaSegmentTemplate(rend.Spec.ID, engine.StreamVideo),
				StartNumber:    1,
			},
		})
		audioReps = append(audioReps, representationXML{
			ID:        representationID(rend.Spec.ID, engine.StreamAudio),
			Bandwidth: rend.Spec.AudioBitrateKbps * 1000,
			SegmentTemplate: segmentTemplateXML{
				Timescale:      timescale,
				Duration:       desc.SegmentSeconds * timescale,
				Initialization: rend.Audio.InitName(),
				Media:          engine.MediaSegmentTemplate(rend.Spec.ID, engine.StreamAudio),
				StartNumber:    1,
			},
		})
	}

	doc := mpdXML{
		XMLNS:                     "urn:mpeg:dash:schema:mpd:2011",
		Profiles:                  "urn:mpeg:dash:profile:isoff-on-demand:2011",
		Type:                      "static",
		MediaPresentationDuration: formatISODuration(desc.DurationSeconds),
		MinBufferTime:             formatISODuration(float64(desc.SegmentSeconds)),
		Period: periodXML{
			ID:       "0",
			Duration: formatISODuration(desc.DurationSeconds),
			AdaptationSets: []adaptationSetXML{
				{
					ID:               "0",
					ContentType:      "video",
					MimeType:         "video/mp4",
					SegmentAlignment: true,
					Representations:  videoReps,
				},
				{
					ID:               "1",
					ContentType:      "audio",
					MimeType:         "audio/mp4",
					SegmentAlignment: true,
					Representations:  audioReps,
				},
			},
		},
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

func representationID(id string, stream int) string {
	return fmt.Sprintf("%s_%d", id, stream)
}

// formatISODuration renders seconds as an ISO 8601 time duration (PT#H#M#S).
func formatISODuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	var builder strings.Builder
	builder.WriteString("PT")
	remaining := seconds
	if hours := math.Floor(remaining / 3600); hours > 0 {
		fmt.Fprintf(&builder, "%.0fH", hours)
		remaining -= hours * 3600
	}
	if minutes := math.Floor(remaining / 60); minutes > 0 {
		fmt.Fprintf(&builder, "%.0fM", minutes)
		remaining -= minutes * 60
	}
	fmt.Fprintf(&builder, "%sS", strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", remaining), "0"), "."))
	return builder.String()
}
