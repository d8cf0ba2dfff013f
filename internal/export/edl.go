package export

import (
	"fmt"
	"math"
	"strings"
)

// GenerateEDL renders a scene sequence as a CMX 3600 cut list. Each event
// is a still image held for its scene's duration: the source run always
// starts at zero and the record run is the scene's slot on the timeline,
// so consecutive record runs are contiguous by construction.
func GenerateEDL(clips []ResolvedClip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	if isDropFrame {
		b.WriteString("FCM: DROP FRAME\n")
	} else {
		b.WriteString("FCM: NON-DROP FRAME\n")
	}
	b.WriteString("\n")

	recordMs := 0
	for i, clip := range clips {
		fmt.Fprintf(&b, "%03d  AX       V     C        %s %s %s %s\n",
			i+1,
			timecode(0, fps),
			timecode(clip.DurationMs, fps),
			timecode(recordMs, fps),
			timecode(recordMs+clip.DurationMs, fps),
		)
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", clip.ClipName)
		fmt.Fprintf(&b, "* SCENE ID:  %s\n", clip.SceneID)
		fmt.Fprintf(&b, "* MEDIA PATH:  %s\n", clip.MediaPath)

		recordMs += clip.DurationMs
	}

	return b.String()
}

// timecode converts a millisecond offset to HH:MM:SS:FF at the given rate.
// Milliseconds round to the nearest frame, matching how the render plan
// quantizes scene durations.
func timecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d",
		totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, frames)
}
