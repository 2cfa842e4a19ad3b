package settings

// DefaultNSFWTagPatterns returns the built-in glob patterns used when the
// nsfw_tag_patterns setting has never been saved. Patterns are matched
// case-insensitively against normalized genres, tags, and demographics.
func DefaultNSFWTagPatterns() []string {
	return []string{
		"adultery",
		"*breast*",
		"futanari",
		"lactation",
		"pet play",
		"scissoring",
		"voyeur",
		"sexual*",
		"sexless",
		"yaoi",
		"yuri",
		"vore",
		"armpits",
		"hypersexuality",
		"human pet",
		"*chest",
		"ero guro",
		"eroge",
		"rimjob",
		"deepthroat",
		"masochism",
		"facial",
		"anal*",
		"oral*",
		"boob*",
		"group sex",
		"cheating",
		"threesome",
		"smut",
		"* sex",
		"sex *",
		"* sex *",
		"prostitution",
		"whore",
		"incest",
		"fetish",
		"defloration",
		"femboy",
		"virginity",
		"omegaverse",
		"torture",
		"masturb*",
		"handjob",
		"cunnilingus",
		"femdom",
		"MILF",
		"fellatio",
		"* breasts",
		"rape",
		"slavery",
		"ecchi",
		"erotica",
	}
}
