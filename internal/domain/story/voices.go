package story

// Voice identifies a hosted synthesis voice.
type Voice string

const (
	VoiceAlloy   Voice = "alloy"
	VoiceAsh     Voice = "ash"
	VoiceBallad  Voice = "ballad"
	VoiceCoral   Voice = "coral"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceNova    Voice = "nova"
	VoiceOnyx    Voice = "onyx"
	VoiceSage    Voice = "sage"
	VoiceShimmer Voice = "shimmer"
	VoiceVerse   Voice = "verse"
)

// VoiceInfo describes a voice for the cast editor's voice listing.
type VoiceInfo struct {
	ID          Voice  `json:"id"`
	Description string `json:"description"`
}

// Voices is the catalog of voices the synthesis service offers.
var Voices = []VoiceInfo{
	{VoiceAlloy, "Female heavy voice suitable for age 30-50"},
	{VoiceAsh, "Male heavy voice suitable for age 40-60"},
	{VoiceBallad, "Male heavy voice suitable for age 20-45, good for narration"},
	{VoiceCoral, "Female voice suitable for age 20-40, good for narration"},
	{VoiceEcho, "Male heavy voice suitable for age 20-45, good for narration"},
	{VoiceFable, "Male voice suitable for age 20-45"},
	{VoiceNova, "Female voice suitable for age 20-40"},
	{VoiceOnyx, "Male heavy voice suitable for age 20-45"},
	{VoiceSage, "Female light voice suitable for age 20-40"},
	{VoiceShimmer, "Female voice suitable for age 30-50"},
	{VoiceVerse, "Male voice suitable for age 20-45"},
}

// ValidVoice reports whether v is one of the catalog voices.
func ValidVoice(v Voice) bool {
	for _, info := range Voices {
		if info.ID == v {
			return true
		}
	}
	return false
}
