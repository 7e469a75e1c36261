package modsh

// Validate checks args against the command's declared parameters. The
// returned *ArityError carries the usage line.
func Validate(d *Descriptor, args []string) error {
	min := len(d.Required)
	max := min + len(d.Optional)
	switch {
	case len(args) < min:
		return &ArityError{Command: d.Name, Got: len(args), Missing: true, Usage: d.Usage()}
	case len(args) > max:
		return &ArityError{Command: d.Name, Got: len(args), Usage: d.Usage()}
	}
	return nil
}
