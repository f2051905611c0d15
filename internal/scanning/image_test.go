package scanning

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// pngHeader returns a PNG signature and IHDR chunk declaring an 8-bit
// grayscale image of the given size, with no pixel data
func pngHeader(width, height uint32) []byte {
	var ihdr bytes.Buffer
	ihdr.WriteString("IHDR")
	binary.Write(&ihdr, binary.BigEndian, width)
	binary.Write(&ihdr, binary.BigEndian, height)
	ihdr.Write([]byte{8, 0, 0, 0, 0})

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(ihdr.Len()-4))
	buf.Write(ihdr.Bytes())
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr.Bytes()))
	return buf.Bytes()
}

var _ = Describe("ValidateImage", func() {
	var (
		data     []byte
		mimeType string
		err      error
	)

	JustBeforeEach(func() {
		mimeType, err = ValidateImage(data)
	})

	When("the data is a PNG", func() {
		BeforeEach(func() {
			data = pngBytes()
		})

		It("should report image/png", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal(MimePNG))
		})
	})

	When("the data is a JPEG", func() {
		BeforeEach(func() {
			data = jpegBytes()
		})

		It("should report image/jpeg", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal(MimeJPEG))
		})
	})

	When("the data is not an image", func() {
		BeforeEach(func() {
			data = []byte("definitely not a picture")
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(mimeType).To(BeEmpty())
		})
	})

	When("the PNG is truncated", func() {
		BeforeEach(func() {
			full := pngBytes()
			data = full[:len(full)/2]
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the PNG declares more pixels than allowed", func() {
		BeforeEach(func() {
			data = pngHeader(20000, 20000)
		})

		It("returns ErrImageTooLarge before decoding pixels", func() {
			Expect(err).To(MatchError(ErrImageTooLarge))
			Expect(err).To(MatchError(ContainSubstring("20000x20000")))
			Expect(mimeType).To(BeEmpty())
		})
	})

	When("the PNG declares exactly the allowed pixels", func() {
		BeforeEach(func() {
			data = pngHeader(MaxImagePixels, 1)
		})

		It("passes the size check and fails on the missing pixel data", func() {
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(ErrImageTooLarge))
		})
	})

	When("the data is empty", func() {
		BeforeEach(func() {
			data = nil
		})

		It("returns the error", func() {
			Expect(err).To(MatchError("empty image"))
		})
	})
})

var _ = Describe("imageFormat", func() {
	It("should map MIME types to genai formats", func() {
		Expect(imageFormat(MimePNG)).To(Equal("png"))
		Expect(imageFormat(MimeJPEG)).To(Equal("jpeg"))
		Expect(imageFormat("")).To(Equal("jpeg"))
	})
})
