package rbac

// Default policy for the three platform roles. Trainers author content and
// can inspect every attempt; learners only touch their own work.
var RolePermissions = map[string][]string{
	"learner": {
		"quiz:view",
		"training:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"progress:own",
	},
	"trainer": {
		"quiz:view",
		"quiz:create",
		"quiz:stats",
		"training:view",
		"training:create",
		"attempt:view-all",
		"attempt:verify",
		"progress:view-all",
	},
	"admin": {
		"*", // everything
	},
}
