package captions

import "encoding/xml"

// Innertube /player request payload.

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl"`
	Gl                string `json:"gl"`
}

// Innertube /player response, reduced to the caption track list.

type playerResp struct {
	PlayabilityStatus *playabilityStatus `json:"playabilityStatus"`
	Captions          *captionsRenderer  `json:"captions"`
}

type playabilityStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type captionsRenderer struct {
	PlayerCaptionsTracklistRenderer tracklistRenderer `json:"playerCaptionsTracklistRenderer"`
}

type tracklistRenderer struct {
	CaptionTracks []captionTrack `json:"captionTracks"`
}

type captionTrack struct {
	BaseURL        string    `json:"baseUrl"`
	Name           trackName `json:"name"`
	LanguageCode   string    `json:"languageCode"`
	Kind           string    `json:"kind"`
	IsTranslatable bool      `json:"isTranslatable"`
}

type trackName struct {
	SimpleText string     `json:"simpleText"`
	Runs       []textRun  `json:"runs"`
}

type textRun struct {
	Text string `json:"text"`
}

func (n trackName) text() string {
	if n.SimpleText != "" {
		return n.SimpleText
	}
	for _, r := range n.Runs {
		if r.Text != "" {
			return r.Text
		}
	}
	return ""
}

// Timedtext XML caption document.

type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Lines   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}
