package validation

// Messages reported for the catalog payloads.
const (
	MsgUsernameEmpty = "username shouldn't be empty"
	MsgNameEmpty     = "name shouldn't be empty"
	MsgNameLength    = "Name between 2 and 30"
	MsgPasswordEmpty = "password shouldn't be empty"
	MsgPasswordLen   = "password between 2 and 10 field"
	MsgYearOfBirth   = "yearOfBirth > 0"
	MsgTitleEmpty    = "title shouldn't be empty"
	MsgTitleLength   = "title between 2 and 30"
	MsgAuthorEmpty   = "author shouldn't be empty"
	MsgAuthorLength  = "author between 2 and 30"
	MsgReleaseYear   = "release_year > 0"
	MsgUsernameTaken = "this username is already taken"
)

// Username checks the login name of a new account.
func (v *Validator) Username(value string) *Validator {
	return v.NotEmpty("username", value, MsgUsernameEmpty).
		Length("username", value, 2, 30, MsgNameLength)
}

// Password checks a clear-text password.
func (v *Validator) Password(value string) *Validator {
	return v.NotEmpty("password", value, MsgPasswordEmpty).
		Length("password", value, 2, 10, MsgPasswordLen)
}

// Profile checks the editable personal fields.
func (v *Validator) Profile(fullName string, yearOfBirth int) *Validator {
	return v.NotEmpty("fullName", fullName, MsgNameEmpty).
		Length("fullName", fullName, 2, 30, MsgNameLength).
		Min("yearOfBirth", yearOfBirth, 0, MsgYearOfBirth)
}

// Book checks the catalog fields of a book.
func (v *Validator) Book(title, author string, releaseYear int) *Validator {
	return v.NotEmpty("title", title, MsgTitleEmpty).
		Length("title", title, 2, 30, MsgTitleLength).
		NotEmpty("author", author, MsgAuthorEmpty).
		Length("author", author, 2, 30, MsgAuthorLength).
		Min("releaseYear", releaseYear, 0, MsgReleaseYear)
}
