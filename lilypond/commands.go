package lilypond

import "regexp"

// builtinCommands are engraving commands with no effect on the note sequence.
// They are consumed without a warning.
var builtinCommands = map[string]bool{
	// bars and breaks
	"bar": true, "break": true, "noBreak": true, "pageBreak": true, "noPageBreak": true,
	"pageTurn": true, "allowPageTurn": true, "fine": true, "section": true, "sectionLabel": true,
	"mark": true, "default": true, "segnoMark": true, "codaMark": true,
	"jump": true, "textMark": true, "textEndMark": true, "caesura": true, "breathe": true,
	// articulations and ornaments
	"staccato": true, "staccatissimo": true, "accent": true, "marcato": true, "tenuto": true,
	"portato": true, "fermata": true, "shortfermata": true, "longfermata": true,
	"trill": true, "turn": true, "reverseturn": true, "mordent": true, "prall": true,
	"prallprall": true, "upbow": true, "downbow": true, "flageolet": true, "open": true,
	"stopped": true, "snappizzicato": true, "espressivo": true, "segno": true, "coda": true,
	"varcoda": true, "startTrillSpan": true, "stopTrillSpan": true, "glissando": true,
	"laissezVibrer": true, "repeatTie": true, "harmonic": true,
	// dynamics spanners
	"cresc": true, "decresc": true, "dim": true, "crescTextCresc": true, "dimTextDim": true,
	"startTextSpan": true, "stopTextSpan": true,
	// beaming and phrasing
	"autoBeamOn": true, "autoBeamOff": true, "noBeam": true,
	"phrasingSlurUp": true, "phrasingSlurDown": true,
	// direction and voice styling
	"voiceOne": true, "voiceTwo": true, "voiceThree": true, "voiceFour": true, "oneVoice": true,
	"stemUp": true, "stemDown": true, "stemNeutral": true,
	"slurUp": true, "slurDown": true, "slurNeutral": true, "slurDashed": true, "slurDotted": true, "slurSolid": true,
	"tieUp": true, "tieDown": true, "tieNeutral": true, "tieDashed": true, "tieDotted": true, "tieSolid": true,
	"dynamicUp": true, "dynamicDown": true, "dynamicNeutral": true,
	"tupletUp": true, "tupletDown": true, "tupletNeutral": true,
	"arpeggioArrowUp": true, "arpeggioArrowDown": true, "arpeggioNormal": true,
	"textLengthOn": true, "textLengthOff": true,
	"hideNotes": true, "unHideNotes": true, "cadenzaOn": true, "cadenzaOff": true,
	"improvisationOn": true, "improvisationOff": true,
	"sustainOn": true, "sustainOff": true, "sostenutoOn": true, "sostenutoOff": true,
	"unaCorda": true, "treCorde": true,
	"startStaff": true, "stopStaff": true, "startGroup": true, "stopGroup": true,
	"bassFigureExtendersOn": true, "bassFigureExtendersOff": true,
	"numericTimeSignature": true, "defaultTimeSignature": true,
	"compressMMRests": true, "compressEmptyMeasures": true, "expandEmptyMeasures": true,
	"accidentalStyle": true, "clef": true, "markup": true,
}

// dynamicsPattern matches dynamic marks such as \p, \ff, \sfz, \fp
var dynamicsPattern = regexp.MustCompile(`^(?:p+|f+|mp|mf|sf+|sfz|sfp|fp|fz|rfz|rf|sp|spp|n|[<>!])$`)

func isBuiltinCommand(name string) bool {
	if builtinCommands[name] || dynamicsPattern.MatchString(name) {
		return true
	}
	// \\, \>, \< and other punctuation commands
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return true
		}
	}
	return false
}
