package converter

import "strings"

// UploadedFile is a source blob with its declared media type and display
// name. Converters never modify Data.
type UploadedFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// NewUploadedFile builds an UploadedFile, sniffing the media type when the
// declared one is missing or generic.
func NewUploadedFile(name, declared string, data []byte) UploadedFile {
	mt := normalizeMediaType(declared)
	if mt == "" || mt == genericMediaType || CategoryOf(mt) == Unknown {
		if detected := DetectMediaType(name, data); CategoryOf(detected) != Unknown || mt == "" {
			mt = detected
		}
	}
	return UploadedFile{Name: name, MediaType: mt, Data: data}
}

// Category is the file's conversion category.
func (f UploadedFile) Category() Category {
	return CategoryOf(f.MediaType)
}

// Size is the length of the file in bytes.
func (f UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// subtype returns the part of the media type after the slash.
func (f UploadedFile) subtype() string {
	mt := normalizeMediaType(f.MediaType)
	if i := strings.IndexByte(mt, '/'); i >= 0 {
		return mt[i+1:]
	}
	return mt
}

// Output is a finished conversion.
type Output struct {
	Name      string
	MediaType string
	Data      []byte
	Status    string
}
