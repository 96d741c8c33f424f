package webcode

// FileStore is the in-memory authoritative mapping of filename to content
// for one session. Listing preserves the order names were first written;
// rewriting a name replaces content in place. There is no per-file delete:
// the store lives and dies with its session.
//
// Note: not synchronized. Callers serialize writes per session; policy is
// last-write-wins.
type FileStore struct {
	names []string
	files map[string]string
}

func NewFileStore() *FileStore {
	return &FileStore{files: make(map[string]string)}
}

// Write upserts a file. First write of a name fixes its listing position.
func (s *FileStore) Write(name, content string) {
	if _, exists := s.files[name]; !exists {
		s.names = append(s.names, name)
	}
	s.files[name] = content
}

// Read returns the content of name, or false if never written.
func (s *FileStore) Read(name string) (string, bool) {
	content, ok := s.files[name]
	return content, ok
}

// List returns all filenames in first-write order.
func (s *FileStore) List() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *FileStore) Len() int {
	return len(s.names)
}
