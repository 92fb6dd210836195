package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jamm/backend/internal/database"
	"jamm/backend/internal/friends"
	"jamm/backend/internal/models"
)

// region --- DTOs ---

// SendFriendRequestInput identifies the recipient of a new friend request.
type SendFriendRequestInput struct {
	ToAccountID uint `json:"to_user_id" binding:"required"`
}

// FriendRequestActionInput is the recipient's answer to a pending request.
type FriendRequestActionInput struct {
	Action string `json:"action" binding:"required,oneof=accept decline"`
}

// endregion

// friendError translates friendship errors to their HTTP representation,
// keeping the violated rule visible for client-side messaging.
func friendError(c *gin.Context, err error) {
	var ve *friends.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Detail, "rule": ve.Rule})
	case errors.Is(err, friends.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Richiesta non trovata"})
	case errors.Is(err, friends.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Non autorizzato"})
	case errors.Is(err, friends.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Richiesta già gestita"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operazione non riuscita"})
	}
}

// SendFriendRequest godoc
// @Summary      Send a friend request
// @Description  Creates a pending friend request toward a person account.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendFriendRequestInput true "Recipient"
// @Success      201  {object}  FriendRequestResponse
// @Failure      400  {object}  ErrorResponse "Invariant violated (self request, wrong recipient kind, already friends, inverse pending, duplicate)"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Recipient not found"
// @Router       /friends/requests [post]
func SendFriendRequest(c *gin.Context) {
	var input SendFriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_user_id richiesto"})
		return
	}

	fr, err := friendsService().Send(c.Request.Context(), viewerID(c), input.ToAccountID)
	if err != nil {
		friendError(c, err)
		return
	}

	c.JSON(http.StatusCreated, friendRequestResponse(*fr))
}

// RespondFriendRequest godoc
// @Summary      Respond to a friend request
// @Description  Accepts or declines a pending request. Only the recipient may respond; a request that is no longer pending yields 409.
// @Tags         friendship
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                      true  "Friend request ID"
// @Param        input body  FriendRequestActionInput true  "accept or decline"
// @Success      200  {object}  FriendRequestResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already handled"
// @Router       /friends/requests/{id}/respond [post]
func RespondFriendRequest(c *gin.Context) {
	requestID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var input FriendRequestActionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fr, err := friendsService().Respond(c.Request.Context(), requestID, viewerID(c), friends.Action(input.Action))
	if err != nil {
		friendError(c, err)
		return
	}

	c.JSON(http.StatusOK, friendRequestResponse(*fr))
}

// CancelFriendRequest godoc
// @Summary      Cancel a sent friend request
// @Description  Cancels the caller's own pending request. A request that is absent, already handled, or not the caller's is uniformly reported as not found.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Friend request ID"
// @Success      200  {object}  FriendRequestResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /friends/requests/{id}/cancel [post]
func CancelFriendRequest(c *gin.Context) {
	requestID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	fr, err := friendsService().Cancel(c.Request.Context(), requestID, viewerID(c))
	if err != nil {
		friendError(c, err)
		return
	}

	c.JSON(http.StatusOK, friendRequestResponse(*fr))
}

// Unfriend godoc
// @Summary      Remove a friend
// @Description  Deletes the accepted edge with the given account, whichever direction it was stored in. The pair may re-friend afterwards.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Other account ID"
// @Success      204  "No Content"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not friends"
// @Router       /friends/{id} [delete]
func Unfriend(c *gin.Context) {
	otherID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account ID"})
		return
	}

	if err := friendsService().Unfriend(c.Request.Context(), viewerID(c), otherID); err != nil {
		friendError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MyFriends godoc
// @Summary      List friends
// @Description  Lists the person profiles holding an accepted edge with the viewer, projected for the viewer.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   map[string]any
// @Failure      401  {object}  ErrorResponse
// @Router       /friends [get]
func MyFriends(c *gin.Context) {
	me := viewerID(c)

	var accepted []models.FriendRequest
	err := database.DB.
		Where("status = ?", models.StatusAccepted).
		Where("from_account_id = ? OR to_account_id = ?", me, me).
		Find(&accepted).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
		return
	}

	friendIDs := make([]uint, 0, len(accepted))
	for _, fr := range accepted {
		if fr.FromAccountID == me {
			friendIDs = append(friendIDs, fr.ToAccountID)
		} else {
			friendIDs = append(friendIDs, fr.FromAccountID)
		}
	}

	out := []gin.H{}
	if len(friendIDs) > 0 {
		var persone []models.Persona
		err = database.DB.Preload("Account").
			Where("account_id IN ?", friendIDs).
			Order("account_id").
			Find(&persone).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
			return
		}
		for _, p := range persone {
			out = append(out, personaResponse(p, me))
		}
	}

	c.JSON(http.StatusOK, out)
}

// PendingRequests godoc
// @Summary      List pending requests
// @Description  Lists the viewer's pending incoming and outgoing friend requests.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests/pending [get]
func PendingRequests(c *gin.Context) {
	me := viewerID(c)

	var incoming, outgoing []models.FriendRequest
	if err := database.DB.Where("to_account_id = ? AND status = ?", me, models.StatusPending).Find(&incoming).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
		return
	}
	if err := database.DB.Where("from_account_id = ? AND status = ?", me, models.StatusPending).Find(&outgoing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
		return
	}

	in := make([]FriendRequestResponse, 0, len(incoming))
	for _, fr := range incoming {
		in = append(in, friendRequestResponse(fr))
	}
	outg := make([]FriendRequestResponse, 0, len(outgoing))
	for _, fr := range outgoing {
		outg = append(outg, friendRequestResponse(fr))
	}

	c.JSON(http.StatusOK, gin.H{"incoming": in, "outgoing": outg})
}

func entryResponse(e friends.Entry, me uint) gin.H {
	out := personaResponse(e.Persona, me)
	out["friendship_status"] = string(e.Status)
	out["friend_request_id"] = e.RequestID
	return out
}

func entryResponses(entries []friends.Entry, me uint) []gin.H {
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse(e, me))
	}
	return out
}

func pageResponse(p friends.Page, me uint) gin.H {
	return gin.H{
		"count":     p.Count,
		"page":      p.Page,
		"page_size": p.PageSize,
		"next":      p.HasNext,
		"previous":  p.HasPrev,
		"results":   entryResponses(p.Results, me),
	}
}

// ListPersoneFriendship godoc
// @Summary      List people by friendship
// @Description  Lists every person profile annotated with its relationship to the viewer, ordered friends, incoming, outgoing, strangers, own profile last.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   map[string]any
// @Failure      401  {object}  ErrorResponse
// @Router       /persone/friendship [get]
func ListPersoneFriendship(c *gin.Context) {
	me := viewerID(c)

	entries, err := friendsService().ListByFriendship(c.Request.Context(), me)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to classify profiles"})
		return
	}

	c.JSON(http.StatusOK, entryResponses(entries, me))
}

// FriendsAndSuggested godoc
// @Summary      Aggregate relationship view
// @Description  Classifies every person account against the viewer and returns the friends (paginated), incoming, outgoing (complete, with the pending request id) and suggested (paginated) buckets. Friends and suggested pages are selected independently.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        page              query  int  false  "Suggested page"       default(1)
// @Param        page_size         query  int  false  "Suggested page size"  default(20)
// @Param        friends_page      query  int  false  "Friends page"         default(1)
// @Param        friends_page_size query  int  false  "Friends page size"    default(20)
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  ErrorResponse
// @Router       /people/friends-and-suggested [get]
func FriendsAndSuggested(c *gin.Context) {
	me := viewerID(c)

	friendsPage, friendsSize := pageParams(c, "friends_page", "friends_page_size", friends.DefaultPageSize, friends.MaxPageSize)
	suggestedPage, suggestedSize := pageParams(c, "page", "page_size", friends.DefaultPageSize, friends.MaxPageSize)

	buckets, err := friendsService().FriendsAndSuggested(
		c.Request.Context(), me,
		friends.PageParams{Page: friendsPage, PageSize: friendsSize},
		friends.PageParams{Page: suggestedPage, PageSize: suggestedSize},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build relationship view"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"friends":   pageResponse(buckets.Friends, me),
		"incoming":  entryResponses(buckets.Incoming, me),
		"outgoing":  entryResponses(buckets.Outgoing, me),
		"suggested": pageResponse(buckets.Suggested, me),
	})
}
