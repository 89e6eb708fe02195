package schema

import "github.com/stewi1014/ebml/element"

// EBML header and global element IDs.
const (
	EBMLID               element.ID = 0x1a45dfa3
	EBMLVersionID        element.ID = 0x4286
	EBMLReadVersionID    element.ID = 0x42f7
	EBMLMaxIDLengthID    element.ID = 0x42f2
	EBMLMaxSizeLengthID  element.ID = 0x42f3
	DocTypeID            element.ID = 0x4282
	DocTypeVersionID     element.ID = 0x4287
	DocTypeReadVersionID element.ID = 0x4285
	VoidID                          = element.VoidID
	CRC32ID                         = element.CRC32ID
)

// Top level Matroska IDs.
const (
	SegmentID     element.ID = 0x18538067
	SeekHeadID    element.ID = 0x114d9b74
	InfoID        element.ID = 0x1549a966
	ClusterID     element.ID = 0x1f43b675
	TracksID      element.ID = 0x1654ae6b
	CuesID        element.ID = 0x1c53bb6b
	AttachmentsID element.ID = 0x1941a469
	ChaptersID    element.ID = 0x1043a770
	TagsID        element.ID = 0x1254c367
)

type reg struct {
	id   element.ID
	kind Kind
	name string
}

// under returns regs as registers of children of parent.
func under(parent element.ID, regs ...reg) []Register {
	out := make([]Register, len(regs))
	for i, r := range regs {
		out[i] = Register{ID: r.id, Kind: r.kind, Name: r.name, Parent: parent}
	}
	return out
}

func join(sets ...[]Register) []Register {
	var all []Register
	for _, set := range sets {
		all = append(all, set...)
	}
	return all
}

// Matroska master IDs below the top level.
const (
	seekID              element.ID = 0x4dbb
	blockGroupID        element.ID = 0xa0
	blockAdditionsID    element.ID = 0x75a1
	blockMoreID         element.ID = 0xa6
	trackEntryID        element.ID = 0xae
	videoID             element.ID = 0xe0
	audioID             element.ID = 0xe1
	cuePointID          element.ID = 0xbb
	cueTrackPositionsID element.ID = 0xb7
	attachedFileID      element.ID = 0x61a7
	editionEntryID      element.ID = 0x45b9
	chapterAtomID       element.ID = 0xb6
	chapterDisplayID    element.ID = 0x80
	tagID               element.ID = 0x7373
	targetsID           element.ID = 0x63c0
	simpleTagID         element.ID = 0x67c8
)

// EBML returns the registers of the EBML header and global elements.
func EBML() []Register {
	return join(
		under(0,
			reg{EBMLID, Master, "EBML"},
			reg{VoidID, Binary, "Void"},
			reg{CRC32ID, Binary, "CRC-32"},
		),
		under(EBMLID,
			reg{EBMLVersionID, Uint, "EBMLVersion"},
			reg{EBMLReadVersionID, Uint, "EBMLReadVersion"},
			reg{EBMLMaxIDLengthID, Uint, "EBMLMaxIDLength"},
			reg{EBMLMaxSizeLengthID, Uint, "EBMLMaxSizeLength"},
			reg{DocTypeID, String, "DocType"},
			reg{DocTypeVersionID, Uint, "DocTypeVersion"},
			reg{DocTypeReadVersionID, Uint, "DocTypeReadVersion"},
		),
	)
}

// Matroska returns the registers of the commonly used Matroska elements.
func Matroska() []Register {
	return join(
		under(0, reg{SegmentID, Master, "Segment"}),
		under(SegmentID,
			reg{SeekHeadID, Master, "SeekHead"},
			reg{InfoID, Master, "Info"},
			reg{ClusterID, Master, "Cluster"},
			reg{TracksID, Master, "Tracks"},
			reg{CuesID, Master, "Cues"},
			reg{AttachmentsID, Master, "Attachments"},
			reg{ChaptersID, Master, "Chapters"},
			reg{TagsID, Master, "Tags"},
		),

		under(SeekHeadID, reg{seekID, Master, "Seek"}),
		under(seekID,
			reg{0x53ab, Binary, "SeekID"},
			reg{0x53ac, Uint, "SeekPosition"},
		),

		under(InfoID,
			reg{0x73a4, Binary, "SegmentUID"},
			reg{0x7384, Unicode, "SegmentFilename"},
			reg{0x3cb923, Binary, "PrevUID"},
			reg{0x3c83ab, Unicode, "PrevFilename"},
			reg{0x3eb923, Binary, "NextUID"},
			reg{0x3e83bb, Unicode, "NextFilename"},
			reg{0x4444, Binary, "SegmentFamily"},
			reg{0x2ad7b1, Uint, "TimecodeScale"},
			reg{0x4489, Float, "Duration"},
			reg{0x4461, Date, "DateUTC"},
			reg{0x7ba9, Unicode, "Title"},
			reg{0x4d80, Unicode, "MuxingApp"},
			reg{0x5741, Unicode, "WritingApp"},
		),

		under(ClusterID,
			reg{0xe7, Uint, "Timecode"},
			reg{0xa7, Uint, "Position"},
			reg{0xab, Uint, "PrevSize"},
			reg{0xa3, Binary, "SimpleBlock"},
			reg{blockGroupID, Master, "BlockGroup"},
		),
		under(blockGroupID,
			reg{0xa1, Binary, "Block"},
			reg{blockAdditionsID, Master, "BlockAdditions"},
			reg{0x9b, Uint, "BlockDuration"},
			reg{0xfa, Uint, "ReferencePriority"},
			reg{0xfb, Int, "ReferenceBlock"},
			reg{0xa4, Binary, "CodecState"},
			reg{0x75a2, Int, "DiscardPadding"},
		),
		under(blockAdditionsID, reg{blockMoreID, Master, "BlockMore"}),
		under(blockMoreID,
			reg{0xee, Uint, "BlockAddID"},
			reg{0xa5, Binary, "BlockAdditional"},
		),

		under(TracksID, reg{trackEntryID, Master, "TrackEntry"}),
		under(trackEntryID,
			reg{0xd7, Uint, "TrackNumber"},
			reg{0x73c5, Uint, "TrackUID"},
			reg{0x83, Uint, "TrackType"},
			reg{0xb9, Uint, "FlagEnabled"},
			reg{0x88, Uint, "FlagDefault"},
			reg{0x55aa, Uint, "FlagForced"},
			reg{0x9c, Uint, "FlagLacing"},
			reg{0x6de7, Uint, "MinCache"},
			reg{0x23e383, Uint, "DefaultDuration"},
			reg{0x55ee, Uint, "MaxBlockAdditionID"},
			reg{0x536e, Unicode, "Name"},
			reg{0x22b59c, String, "Language"},
			reg{0x86, String, "CodecID"},
			reg{0x63a2, Binary, "CodecPrivate"},
			reg{0x258688, Unicode, "CodecName"},
			reg{0x56aa, Uint, "CodecDelay"},
			reg{0x56bb, Uint, "SeekPreRoll"},
			reg{videoID, Master, "Video"},
			reg{audioID, Master, "Audio"},
			reg{0x6d80, Master, "ContentEncodings"},
		),
		under(videoID,
			reg{0x9a, Uint, "FlagInterlaced"},
			reg{0xb0, Uint, "PixelWidth"},
			reg{0xba, Uint, "PixelHeight"},
			reg{0x54b0, Uint, "DisplayWidth"},
			reg{0x54ba, Uint, "DisplayHeight"},
		),
		under(audioID,
			reg{0xb5, Float, "SamplingFrequency"},
			reg{0x78b5, Float, "OutputSamplingFrequency"},
			reg{0x9f, Uint, "Channels"},
			reg{0x6264, Uint, "BitDepth"},
		),

		under(CuesID, reg{cuePointID, Master, "CuePoint"}),
		under(cuePointID,
			reg{0xb3, Uint, "CueTime"},
			reg{cueTrackPositionsID, Master, "CueTrackPositions"},
		),
		under(cueTrackPositionsID,
			reg{0xf7, Uint, "CueTrack"},
			reg{0xf1, Uint, "CueClusterPosition"},
			reg{0xf0, Uint, "CueRelativePosition"},
			reg{0xb2, Uint, "CueDuration"},
			reg{0x5378, Uint, "CueBlockNumber"},
		),

		under(AttachmentsID, reg{attachedFileID, Master, "AttachedFile"}),
		under(attachedFileID,
			reg{0x467e, Unicode, "FileDescription"},
			reg{0x466e, Unicode, "FileName"},
			reg{0x4660, String, "FileMimeType"},
			reg{0x465c, Binary, "FileData"},
			reg{0x46ae, Uint, "FileUID"},
		),

		under(ChaptersID, reg{editionEntryID, Master, "EditionEntry"}),
		under(editionEntryID,
			reg{0x45bc, Uint, "EditionUID"},
			reg{0x45bd, Uint, "EditionFlagHidden"},
			reg{0x45db, Uint, "EditionFlagDefault"},
			reg{chapterAtomID, Master, "ChapterAtom"},
		),
		under(chapterAtomID,
			reg{0x73c4, Uint, "ChapterUID"},
			reg{0x91, Uint, "ChapterTimeStart"},
			reg{0x92, Uint, "ChapterTimeEnd"},
			reg{chapterDisplayID, Master, "ChapterDisplay"},
		),
		under(chapterDisplayID,
			reg{0x85, Unicode, "ChapString"},
			reg{0x437c, String, "ChapLanguage"},
		),

		under(TagsID, reg{tagID, Master, "Tag"}),
		under(tagID,
			reg{targetsID, Master, "Targets"},
			reg{simpleTagID, Master, "SimpleTag"},
		),
		under(targetsID, reg{0x68ca, Uint, "TargetTypeValue"}),
		under(simpleTagID,
			reg{0x45a3, Unicode, "TagName"},
			reg{0x447a, String, "TagLanguage"},
			reg{0x4487, Unicode, "TagString"},
			reg{0x4485, Binary, "TagBinary"},
		),
	)
}

// Default holds the EBML header, the global elements and the commonly used Matroska elements.
var Default = mustNew(EBML(), Matroska())

func mustNew(sets ...[]Register) *Schema {
	s, err := New()
	if err != nil {
		panic(err)
	}
	for _, set := range sets {
		if err := s.Add(set...); err != nil {
			panic(err)
		}
	}
	return s
}
