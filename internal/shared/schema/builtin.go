package schema

// Users gates POST /users.
var Users = Schema{
	Name: "users",
	Fields: []Field{
		{Name: "email", Type: TypeString, Required: true, Format: FormatEmail, MaxLength: 254},
		{Name: "password", Type: TypeString, Required: true, MinLength: 6, MaxLength: 72},
		{Name: "firstName", Type: TypeString, MaxLength: 100},
		{Name: "lastName", Type: TypeString, MaxLength: 100},
	},
}

// Login gates POST /auth/login.
var Login = Schema{
	Name: "login",
	Fields: []Field{
		{Name: "email", Type: TypeString, Required: true, Format: FormatEmail, MaxLength: 254},
		{Name: "password", Type: TypeString, Required: true, MinLength: 1, MaxLength: 72},
	},
}

var registry = map[string]Schema{
	Users.Name: Users,
	Login.Name: Login,
}

// Lookup returns a published schema by name.
func Lookup(name string) (Schema, bool) {
	s, ok := registry[name]
	return s, ok
}
