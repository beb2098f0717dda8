// Package frame packs a batch of flyweight records of one schema into a
// self-describing envelope.
//
// A frame is a 32-byte Header followed by the payload: the records encoded
// back to back, optionally compressed as a whole. The header carries the
// schema id, the byte order, the compression type, the raw and stored
// payload sizes, an xxHash64 checksum of the stored payload and the record
// count. See Header for the exact layout.
//
// Writing grows a pooled buffer on demand:
//
//	w, err := frame.NewWriter(schemaID, frame.WithCompression(format.CompressionZstd))
//	if err != nil {
//	    return err
//	}
//	b := fw.String16().NewBuilder()
//	for _, name := range names {
//	    if _, err := frame.Append(w, b, func(b *fw.StringBuilder) error {
//	        return b.Set(name)
//	    }); err != nil {
//	        return err
//	    }
//	}
//	data, err := w.Finish()
//
// Reading verifies the frame before handing out records:
//
//	f, err := frame.Decode(data)
//	if err != nil {
//	    return err
//	}
//	err = frame.Each(f, fw.String16().NewView(), func(i int, v *fw.StringView) error {
//	    fmt.Println(i, v.String())
//	    return nil
//	})
package frame
