package bind_group_provider

// BufferWrite describes one queued write into a provider's buffer at a byte offset.
// The renderer flushes writes through the device queue before the passes that read them.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// NewBufferWrite builds a write of data at offset 0.
//
// Parameters:
//   - provider: the provider owning the buffer
//   - binding: the binding index of the buffer
//   - data: the bytes to upload
//
// Returns:
//   - BufferWrite: the write
func NewBufferWrite(provider BindGroupProvider, binding int, data []byte) BufferWrite {
	return BufferWrite{Provider: provider, Binding: binding, Data: data}
}
