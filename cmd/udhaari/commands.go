package main

func newRegistry() *CommandRegistry {
	r := NewCommandRegistry()
	r.Register(loginCommand())
	r.Register(logoutCommand())
	r.Register(registerCommand())
	r.Register(whoamiCommand())
	r.Register(resetPasswordCommand())
	r.Register(groupsCommand())
	r.Register(groupCommand())
	r.Register(profileCommand())
	r.Register(shellCommand())
	return r
}
