package safety

// Requirement is the set of capabilities an access check asks for.
// Bit values follow access(2): F_OK=0, X_OK=1, W_OK=2, R_OK=4.
type Requirement uint32

const (
	existsOK Requirement = 0
	execOK   Requirement = 1
	writeOK  Requirement = 2
	readOK   Requirement = 4
)

const (
	// RequireReadWriteExec is used by IsValid and IsExecutable
	RequireReadWriteExec = existsOK | readOK | writeOK | execOK
	// RequireReadWrite is used by IsFile
	RequireReadWrite = existsOK | readOK | writeOK
)

func (r Requirement) String() string {
	b := []byte("---")
	if r&readOK != 0 {
		b[0] = 'r'
	}
	if r&writeOK != 0 {
		b[1] = 'w'
	}
	if r&execOK != 0 {
		b[2] = 'x'
	}
	return string(b)
}
