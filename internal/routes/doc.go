// Package routes assembles the application's router hierarchy:
//
//	RootRouter
//	├── SplashRouter
//	└── TabsRouter
//	    ├── TabARouter
//	    ├── TabBRouter
//	    ├── TabCRouter
//	    └── TabDRouter
//
// Children are constructed and started before their owner adopts them.
// The root owns the top-level Screen, which any descendant reaches with
// router.RootOf. Deep links enter at the root and are forwarded down to the
// tab router that owns their section.
package routes
