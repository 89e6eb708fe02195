package ebml_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/maxatome/go-testdeep/td"

	"github.com/stewi1014/ebml"
	"github.com/stewi1014/ebml/element"
	"github.com/stewi1014/ebml/encio"
	"github.com/stewi1014/ebml/schema"
)

const (
	durationID   element.ID = 0x4489
	muxingAppID  element.ID = 0x4d80
	timecodeID   element.ID = 0xe7
	simpleBlock  element.ID = 0xa3
	unknownTopID element.ID = 0x4299
)

func newMaster(t *testing.T, id element.ID) *element.Master {
	t.Helper()
	el, err := schema.Default.New(id)
	td.CmpNoError(t, err)
	return el.(*element.Master)
}

func newInfo(t *testing.T) (*element.Master, *element.Float, *element.String) {
	t.Helper()
	info := newMaster(t, schema.InfoID)

	dur, err := element.NewFloat(durationID, 1000)
	td.CmpNoError(t, err)
	app, err := element.NewString(muxingAppID, "ebml-test")
	td.CmpNoError(t, err)

	td.CmpNoError(t, info.Append(dur, app))
	return info, dur, app
}

func newCluster(t *testing.T) *element.Master {
	t.Helper()
	cluster := newMaster(t, schema.ClusterID)

	tc, err := element.NewUInt(timecodeID, 5)
	td.CmpNoError(t, err)
	block, err := element.NewBinary(simpleBlock, []byte{1, 2, 3})
	td.CmpNoError(t, err)

	td.CmpNoError(t, cluster.Append(tc, block))
	return cluster
}

func TestHeaderDefaults(t *testing.T) {
	h := ebml.NewHeader(ebml.DefaultDocType, 1, 1)

	buff := new(bytes.Buffer)
	_, err := element.Write(buff, h)
	td.CmpNoError(t, err)
	td.Cmp(t, buff.Bytes(), append(
		[]byte{0x1a, 0x45, 0xdf, 0xa3, 0x8b, 0x42, 0x82, 0x88},
		"matroska"...,
	))

	got := new(ebml.Header)
	_, err = element.Read(bytes.NewReader(buff.Bytes()), got)
	td.CmpNoError(t, err)
	td.Cmp(t, got, h)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := ebml.NewHeader("webm", 4, 2)
	h.MaxSizeLength = 4
	td.Cmp(t, len(h.Element().Children()), 4)

	buff := new(bytes.Buffer)
	_, err := element.Write(buff, h)
	td.CmpNoError(t, err)

	got := new(ebml.Header)
	_, err = element.Read(bytes.NewReader(buff.Bytes()), got)
	td.CmpNoError(t, err)
	td.Cmp(t, got, h)
}

func TestHeaderSkipsUnknownChildren(t *testing.T) {
	old := encio.Warnings
	encio.Warnings = new(bytes.Buffer)
	defer func() { encio.Warnings = old }()

	data := []byte{
		0x1a, 0x45, 0xdf, 0xa3, 0x8d,
		0x42, 0x81, 0x83, 'x', 'y', 'z',
		0x42, 0x82, 0x84, 'w', 'e', 'b', 'm',
	}

	got := new(ebml.Header)
	_, err := element.Read(bytes.NewReader(data), got)
	td.CmpNoError(t, err)
	td.Cmp(t, got.DocType, "webm")
	td.Cmp(t, got.MaxIDLength, uint64(4))
}

func TestEncoderOffsets(t *testing.T) {
	h := ebml.NewHeader("webm", 4, 2)
	info, dur, app := newInfo(t)

	enc := ebml.NewEncoder(new(encio.Buffer), &ebml.Config{TrackOffsets: true})
	td.CmpNoError(t, enc.Encode(h))
	td.CmpNoError(t, enc.Encode(info))

	start := int64(element.TotalSize(h))
	td.Cmp(t, enc.Position(), start+int64(element.TotalSize(info)))

	off, ok := enc.Offset(h)
	td.CmpTrue(t, ok)
	td.Cmp(t, off, int64(0))

	off, ok = enc.Offset(info)
	td.CmpTrue(t, ok)
	td.Cmp(t, off, start)

	off, ok = enc.Offset(dur)
	td.CmpTrue(t, ok)
	td.Cmp(t, off, start+5)

	off, ok = enc.Offset(app)
	td.CmpTrue(t, ok)
	td.Cmp(t, off, start+5+int64(element.TotalSize(dur)))

	_, ok = enc.Offset(newCluster(t))
	td.CmpFalse(t, ok)
}

func TestEncoderRewrite(t *testing.T) {
	h := ebml.NewHeader("webm", 4, 2)
	info, dur, app := newInfo(t)
	cluster := newCluster(t)

	buff := new(encio.Buffer)
	enc := ebml.NewEncoder(buff, &ebml.Config{TrackOffsets: true})
	td.CmpNoError(t, enc.Encode(h))
	td.CmpNoError(t, enc.Encode(info))
	td.CmpNoError(t, enc.Encode(cluster))
	end := enc.Position()

	dur.SetValue(2000)
	td.CmpNoError(t, enc.Rewrite(dur))
	td.Cmp(t, enc.Position(), end)
	td.Cmp(t, int64(len(buff.Bytes())), end)

	app.Append("!")
	td.CmpTrue(t, errors.Is(enc.Rewrite(app), encio.ErrSizeChanged))
	td.CmpTrue(t, errors.Is(enc.Rewrite(info), encio.ErrSizeChanged))

	stranger, err := element.NewUInt(timecodeID, 1)
	td.CmpNoError(t, err)
	td.CmpTrue(t, errors.Is(enc.Rewrite(stranger), encio.ErrNotWritten))

	_, els, err := ebml.ReadAll(bytes.NewReader(buff.Bytes()), nil)
	td.CmpNoError(t, err)
	td.Cmp(t, len(els), 2)
	td.Cmp(t, els[0].(*element.Master).Child(durationID).(*element.Float).Value(), 2000.0)
	td.Cmp(t, els[0].(*element.Master).Child(muxingAppID).(*element.String).Value(), "ebml-test")
}

func TestEncoderTracking(t *testing.T) {
	info, dur, app := newInfo(t)

	enc := ebml.NewEncoder(new(encio.Buffer), nil)
	td.CmpNoError(t, enc.Encode(info))
	td.Cmp(t, enc.Tracked(), 0)
	_, ok := enc.Offset(info)
	td.CmpFalse(t, ok)
	td.CmpTrue(t, errors.Is(enc.Rewrite(dur), encio.ErrNotWritten))

	enc = ebml.NewEncoder(new(encio.Buffer), &ebml.Config{TrackOffsets: true, DisableSeek: true})
	for i := 0; i < 1000; i++ {
		tc, err := element.NewUInt(timecodeID, uint64(i))
		td.CmpNoError(t, err)
		td.CmpNoError(t, enc.Encode(tc))
	}
	td.Cmp(t, enc.Tracked(), 0)

	enc = ebml.NewEncoder(new(bytes.Buffer), &ebml.Config{TrackOffsets: true})
	td.CmpNoError(t, enc.Encode(info))
	td.Cmp(t, enc.Tracked(), 0)

	enc = ebml.NewEncoder(new(encio.Buffer), &ebml.Config{TrackOffsets: true})
	cluster := newCluster(t)
	td.CmpNoError(t, enc.Encode(info))
	td.CmpNoError(t, enc.Encode(cluster))
	td.Cmp(t, enc.Tracked(), 6)

	enc.Forget(cluster)
	td.Cmp(t, enc.Tracked(), 3)
	_, ok = enc.Offset(cluster.Child(timecodeID))
	td.CmpFalse(t, ok)
	td.CmpTrue(t, errors.Is(enc.Rewrite(cluster), encio.ErrNotWritten))

	enc.Forget(dur)
	td.Cmp(t, enc.Tracked(), 2)
	td.CmpTrue(t, errors.Is(enc.Rewrite(dur), encio.ErrNotWritten))
	td.CmpNoError(t, enc.Rewrite(app))

	enc.Forget(info)
	td.Cmp(t, enc.Tracked(), 0)
}

func TestEncoderBodyTooBig(t *testing.T) {
	huge := element.NewVoid(encio.MaxVarint + 1)
	for name, w := range map[string]io.Writer{
		"not seekable": new(bytes.Buffer),
		"seekable":     new(encio.Buffer),
	} {
		enc := ebml.NewEncoder(w, nil)
		td.CmpTrue(t, errors.Is(enc.Encode(huge), encio.ErrVarIntTooBig), name)
		td.Cmp(t, enc.Position(), int64(0), name)
	}
}

func TestEncoderRewriteNotSeekable(t *testing.T) {
	info, dur, _ := newInfo(t)

	enc := ebml.NewEncoder(new(bytes.Buffer), nil)
	td.CmpNoError(t, enc.Encode(info))
	td.CmpTrue(t, errors.Is(enc.Rewrite(dur), encio.ErrNotSeekable))

	enc = ebml.NewEncoder(new(encio.Buffer), &ebml.Config{DisableSeek: true})
	td.CmpNoError(t, enc.Encode(info))
	td.CmpTrue(t, errors.Is(enc.Rewrite(dur), encio.ErrNotSeekable))
}

func TestEncoderBeginEndSeekable(t *testing.T) {
	info, _, _ := newInfo(t)

	buff := new(encio.Buffer)
	enc := ebml.NewEncoder(buff, nil)
	td.CmpNoError(t, enc.Begin(schema.SegmentID))
	td.Cmp(t, enc.Depth(), 1)
	td.CmpNoError(t, enc.Encode(info))
	td.CmpNoError(t, enc.End())
	td.Cmp(t, enc.Depth(), 0)

	data := buff.Bytes()
	body := element.TotalSize(info)
	td.Cmp(t, len(data), 4+8+int(body))
	td.Cmp(t, data[4:12], []byte{0x01, 0, 0, 0, 0, 0, 0, byte(body)})

	segment := newMaster(t, schema.SegmentID)
	_, err := element.Read(bytes.NewReader(data), segment)
	td.CmpNoError(t, err)
	td.Cmp(t, len(segment.Children()), 1)
}

func TestEncoderBeginEndUnknownSize(t *testing.T) {
	info, _, _ := newInfo(t)

	for name, w := range map[string]io.Writer{
		"not seekable":  new(bytes.Buffer),
		"seek disabled": new(encio.Buffer),
	} {
		t.Run(name, func(t *testing.T) {
			enc := ebml.NewEncoder(w, &ebml.Config{DisableSeek: true})
			td.CmpNoError(t, enc.Begin(schema.SegmentID))
			td.CmpNoError(t, enc.Encode(info))
			td.CmpNoError(t, enc.End())

			var data []byte
			switch b := w.(type) {
			case *bytes.Buffer:
				data = b.Bytes()
			case *encio.Buffer:
				data = b.Bytes()
			}
			td.Cmp(t, data[4:12], []byte{0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})

			dec := ebml.NewDecoder(bytes.NewReader(data), nil)
			el, err := dec.DecodeAny()
			td.CmpNoError(t, err)
			td.Cmp(t, el.ID(), schema.SegmentID)
			td.Cmp(t, len(el.(*element.Master).Children()), 1)

			_, err = dec.DecodeAny()
			td.Cmp(t, err, io.EOF)
		})
	}
}

func TestEncoderNestedUnknownSize(t *testing.T) {
	buff := new(bytes.Buffer)
	enc := ebml.NewEncoder(buff, nil)
	td.CmpNoError(t, enc.Encode(ebml.NewHeader("webm", 4, 2)))

	td.CmpNoError(t, enc.Begin(schema.SegmentID))
	for i := uint64(0); i < 2; i++ {
		td.CmpNoError(t, enc.Begin(schema.ClusterID))
		tc, err := element.NewUInt(timecodeID, i*1000)
		td.CmpNoError(t, err)
		td.CmpNoError(t, enc.Encode(tc))
		td.CmpNoError(t, enc.End())
	}
	td.CmpNoError(t, enc.End())
	second := enc.Position()

	td.CmpNoError(t, enc.Begin(schema.SegmentID))
	td.CmpNoError(t, enc.Encode(newCluster(t)))
	td.CmpNoError(t, enc.End())
	data := buff.Bytes()

	t.Run("decoder", func(t *testing.T) {
		dec := ebml.NewDecoder(bytes.NewReader(data), nil)
		_, err := dec.DecodeHeader()
		td.CmpNoError(t, err)

		el, err := dec.DecodeAny()
		td.CmpNoError(t, err)
		td.Cmp(t, el.ID(), schema.SegmentID)
		td.Cmp(t, dec.Position(), second)

		clusters := el.(*element.Master).ChildrenOf(schema.ClusterID)
		td.Cmp(t, len(clusters), 2)
		for i, c := range clusters {
			c := c.(*element.Master)
			td.Cmp(t, len(c.Children()), 1)
			td.Cmp(t, c.Child(timecodeID).(*element.UInt).Value(), uint64(i*1000))
		}

		el, err = dec.DecodeAny()
		td.CmpNoError(t, err)
		td.Cmp(t, el.ID(), schema.SegmentID)
		td.Cmp(t, len(el.(*element.Master).ChildrenOf(schema.ClusterID)), 1)

		_, err = dec.DecodeAny()
		td.Cmp(t, err, io.EOF)
		td.Cmp(t, dec.Position(), int64(len(data)))
	})

	t.Run("not seekable", func(t *testing.T) {
		_, els, err := ebml.ReadAll(struct{ io.Reader }{bytes.NewReader(data)}, nil)
		td.CmpNoError(t, err)
		td.Cmp(t, len(els), 2)
		td.Cmp(t, len(els[0].(*element.Master).Children()), 2)
		td.Cmp(t, len(els[1].(*element.Master).Children()), 1)
	})
}

func TestDecoderUnknownSizeWrongParent(t *testing.T) {
	buff := new(bytes.Buffer)
	enc := ebml.NewEncoder(buff, nil)
	td.CmpNoError(t, enc.Begin(schema.ClusterID))
	tc, err := element.NewUInt(timecodeID, 1)
	td.CmpNoError(t, err)
	td.CmpNoError(t, enc.Encode(tc))
	td.CmpNoError(t, enc.End())

	info, _, _ := newInfo(t)
	td.CmpNoError(t, enc.Encode(info))

	dec := ebml.NewDecoder(bytes.NewReader(buff.Bytes()), nil)
	el, err := dec.DecodeAny()
	td.CmpNoError(t, err)
	td.Cmp(t, el.ID(), schema.ClusterID)
	td.Cmp(t, len(el.(*element.Master).Children()), 1)

	el, err = dec.DecodeAny()
	td.CmpNoError(t, err)
	td.Cmp(t, el.ID(), schema.InfoID)
}

func TestEncoderBeginLimits(t *testing.T) {
	enc := ebml.NewEncoder(new(bytes.Buffer), &ebml.Config{MaxSizeLength: 4})
	td.CmpTrue(t, errors.Is(enc.Begin(schema.SegmentID), encio.ErrNotSeekable))

	enc = ebml.NewEncoder(new(encio.Buffer), &ebml.Config{MaxIDLength: 2})
	td.CmpTrue(t, errors.Is(enc.Begin(schema.SegmentID), encio.ErrInvalidElementID))
	td.CmpTrue(t, errors.Is(enc.Encode(newCluster(t)), encio.ErrInvalidElementID))

	enc = ebml.NewEncoder(new(encio.Buffer), &ebml.Config{MaxSizeLength: 1})
	td.CmpNoError(t, enc.Begin(schema.SegmentID))
	for i := 0; i < 50; i++ {
		tc, err := element.NewUInt(timecodeID, 1)
		td.CmpNoError(t, err)
		td.CmpNoError(t, enc.Encode(tc))
	}
	td.CmpTrue(t, errors.Is(enc.End(), encio.ErrSpecSizeTooSmall))

	big, err := element.NewBinary(simpleBlock, make([]byte, 200))
	td.CmpNoError(t, err)
	td.CmpTrue(t, errors.Is(enc.Encode(big), encio.ErrVarIntTooBig))
}

func TestEncoderEndWithoutBeginPanics(t *testing.T) {
	enc := ebml.NewEncoder(new(bytes.Buffer), nil)
	td.CmpPanic(t, func() { enc.End() }, td.NotEmpty())
}

func TestDecoderWalk(t *testing.T) {
	h := ebml.NewHeader("webm", 4, 2)
	info, _, _ := newInfo(t)

	buff := new(bytes.Buffer)
	enc := ebml.NewEncoder(buff, nil)
	td.CmpNoError(t, enc.Encode(h))
	td.CmpNoError(t, enc.Begin(schema.SegmentID))
	td.CmpNoError(t, enc.Encode(info))
	td.CmpNoError(t, enc.Encode(newCluster(t)))
	td.CmpNoError(t, enc.End())

	dec := ebml.NewDecoder(bytes.NewReader(buff.Bytes()), nil)

	f, err := dec.Next()
	td.CmpNoError(t, err)
	td.Cmp(t, f.ID, schema.EBMLID)
	td.Cmp(t, f.Offset, int64(0))
	td.CmpNoError(t, dec.Skip(f))

	f, err = dec.Next()
	td.CmpNoError(t, err)
	td.Cmp(t, f.ID, schema.SegmentID)
	td.CmpTrue(t, f.Unknown())
	td.CmpTrue(t, errors.Is(dec.Skip(f), encio.ErrBadBodySize))

	f, err = dec.Next()
	td.CmpNoError(t, err)
	td.Cmp(t, f.ID, schema.InfoID)
	td.Cmp(t, f.Offset, int64(element.TotalSize(h))+4+8)

	got := newMaster(t, schema.InfoID)
	td.CmpNoError(t, dec.DecodeBody(f, got))
	td.Cmp(t, got.Child(muxingAppID).(*element.String).Value(), "ebml-test")

	f, err = dec.Next()
	td.CmpNoError(t, err)
	td.Cmp(t, f.ID, schema.ClusterID)
	td.Cmp(t, f.Size, uint64(3+5))
	td.CmpNoError(t, dec.Skip(f))

	_, err = dec.Next()
	td.Cmp(t, err, io.EOF)
	td.Cmp(t, dec.Position(), int64(buff.Len()))
}

func TestDecoderDecode(t *testing.T) {
	info, _, _ := newInfo(t)
	buff := new(bytes.Buffer)
	td.CmpNoError(t, ebml.NewEncoder(buff, nil).Encode(info))
	data := buff.Bytes()

	got := newMaster(t, schema.InfoID)
	td.CmpNoError(t, ebml.NewDecoder(bytes.NewReader(data), nil).Decode(got))
	td.Cmp(t, len(got.Children()), 2)

	wrong := newMaster(t, schema.ClusterID)
	err := ebml.NewDecoder(bytes.NewReader(data), nil).Decode(wrong)
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidChildID))
}

func TestDecoderFrameMismatchPanics(t *testing.T) {
	buff := new(bytes.Buffer)
	td.CmpNoError(t, ebml.Write(buff, ebml.NewHeader("webm", 4, 2)))

	dec := ebml.NewDecoder(bytes.NewReader(buff.Bytes()), nil)
	f, err := dec.Next()
	td.CmpNoError(t, err)
	_, err = dec.Next()
	td.CmpNoError(t, err)

	td.CmpPanic(t, func() { dec.DecodeBody(f, new(ebml.Header)) }, td.NotEmpty())
}

func TestDecoderLimits(t *testing.T) {
	segment := []byte{0x18, 0x53, 0x80, 0x67, 0x80}
	_, err := ebml.NewDecoder(bytes.NewReader(segment), &ebml.Config{MaxIDLength: 2}).Next()
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidEBMLID))

	wide := []byte{0xe7, 0x40, 0x01, 0x05}
	_, err = ebml.NewDecoder(bytes.NewReader(wide), &ebml.Config{MaxSizeLength: 1}).Next()
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidVarInt))

	f, err := ebml.NewDecoder(bytes.NewReader(wide), nil).Next()
	td.CmpNoError(t, err)
	td.Cmp(t, f.HeaderSize, 3)
}

func TestDecodeHeaderAdoptsLimits(t *testing.T) {
	h := ebml.NewHeader("webm", 4, 2)
	h.MaxIDLength = 2

	buff := new(bytes.Buffer)
	td.CmpNoError(t, ebml.Write(buff, h, newMaster(t, schema.SegmentID)))

	dec := ebml.NewDecoder(bytes.NewReader(buff.Bytes()), nil)
	got, err := dec.DecodeHeader()
	td.CmpNoError(t, err)
	td.Cmp(t, got.MaxIDLength, uint64(2))

	_, err = dec.Next()
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidEBMLID))
}

func TestDecoderTruncated(t *testing.T) {
	buff := new(bytes.Buffer)
	td.CmpNoError(t, ebml.Write(buff, ebml.NewHeader("webm", 4, 2), newCluster(t)))
	data := buff.Bytes()

	for _, cut := range []int{1, 2, 5} {
		_, _, err := ebml.ReadAll(bytes.NewReader(data[:len(data)-cut]), nil)
		td.CmpTrue(t, errors.Is(err, encio.ErrRead), err)
		td.CmpTrue(t, errors.Is(err, io.ErrUnexpectedEOF), err)
	}
}

func TestDecoderSkipUnknown(t *testing.T) {
	warnings := new(bytes.Buffer)
	old := encio.Warnings
	encio.Warnings = warnings
	defer func() { encio.Warnings = old }()

	stranger, err := element.NewUInt(unknownTopID, 1)
	td.CmpNoError(t, err)
	info, _, _ := newInfo(t)

	buff := new(bytes.Buffer)
	td.CmpNoError(t, ebml.Write(buff, ebml.NewHeader("webm", 4, 2), stranger, info))

	_, _, err = ebml.ReadAll(bytes.NewReader(buff.Bytes()), nil)
	td.CmpTrue(t, errors.Is(err, encio.ErrInvalidChildID))

	_, els, err := ebml.ReadAll(bytes.NewReader(buff.Bytes()), &ebml.Config{SkipUnknown: true})
	td.CmpNoError(t, err)
	td.Cmp(t, len(els), 1)
	td.Cmp(t, els[0].ID(), schema.InfoID)
	td.CmpNot(t, warnings.Len(), 0)
}

func TestDecoderSeek(t *testing.T) {
	h := ebml.NewHeader("webm", 4, 2)
	info, _, _ := newInfo(t)

	buff := new(bytes.Buffer)
	td.CmpNoError(t, ebml.Write(buff, h, newCluster(t), info))
	data := buff.Bytes()
	at := int64(len(data)) - int64(element.TotalSize(info))

	dec := ebml.NewDecoder(bytes.NewReader(data), nil)
	td.CmpNoError(t, dec.Seek(at))
	el, err := dec.DecodeAny()
	td.CmpNoError(t, err)
	td.Cmp(t, el.ID(), schema.InfoID)
	td.Cmp(t, dec.Position(), int64(len(data)))

	dec = ebml.NewDecoder(struct{ io.Reader }{bytes.NewReader(data)}, nil)
	td.CmpTrue(t, errors.Is(dec.Seek(at), encio.ErrNotSeekable))
}

func TestWriteReadAll(t *testing.T) {
	h := ebml.NewHeader("webm", 4, 2)
	info, _, _ := newInfo(t)
	cluster := newCluster(t)
	cluster.Checksum = true

	buff := new(bytes.Buffer)
	td.CmpNoError(t, ebml.Write(buff, h, info, cluster))

	got, els, err := ebml.ReadAll(bytes.NewReader(buff.Bytes()), nil)
	td.CmpNoError(t, err)
	td.Cmp(t, got, h)
	td.Cmp(t, len(els), 2)

	c := els[1].(*element.Master)
	td.CmpTrue(t, c.Checksum)
	td.Cmp(t, c.Child(timecodeID).(*element.UInt).Value(), uint64(5))
	td.Cmp(t, c.Child(simpleBlock).(*element.Binary).Value(), []byte{1, 2, 3})

	_, _, err = ebml.ReadAll(bytes.NewReader(nil), nil)
	td.Cmp(t, err, io.EOF)
}
