// Package imaging converts PDF image streams to pixel buffers and encodes
// them as PNG.
//
// An Image wraps an image XObject or inline image and decodes lazily:
//
//	img := imaging.FromStream(stream, colorSpaces, resolver)
//	buf, err := img.Pixels()
//	err = imaging.PNGEncoder{}.Encode(w, buf)
//
// Supported colour spaces are DeviceGray, DeviceRGB, DeviceCMYK, CalGray,
// CalRGB, ICCBased (by component count), Indexed and single-component
// Separation. Samples of 1, 2, 4, 8 and 16 bits are unpacked with /Decode
// applied. Stencil masks (/ImageMask) become black on white; /SMask and
// /Mask add an alpha channel when their size matches the image.
//
// DCTDecode is decoded with image/jpeg and CCITTFaxDecode through the
// filters package. JPXDecode and JBIG2Decode return ErrUnsupported.
package imaging
