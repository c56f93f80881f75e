package transcode

import "encoding/binary"

// HasFastStart reports whether an MP4 payload places its moov atom before
// the mdat atom, so playback can begin before the full file downloads.
func HasFastStart(data []byte) bool {
	offset := uint64(0)
	length := uint64(len(data))
	for offset+8 <= length {
		size := uint64(binary.BigEndian.Uint32(data[offset : offset+4]))
		boxType := string(data[offset+4 : offset+8])
		switch boxType {
		case "moov":
			return true
		case "mdat":
			return false
		}
		switch size {
		case 0:
			// Box extends to end of file.
			return false
		case 1:
			if offset+16 > length {
				return false
			}
			size = binary.BigEndian.Uint64(data[offset+8 : offset+16])
		}
		if size < 8 {
			return false
		}
		offset += size
	}
	return false
}
